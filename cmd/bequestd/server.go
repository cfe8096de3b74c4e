package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/app"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/x/inheritance"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	// AccountHeader carries the authenticated account of the caller. It
	// must be set by a trusted gateway.
	AccountHeader = "X-Account"

	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-Id"

	maxBodySize = 1 << 16
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger *app.Ledger
	logger log.Logger
	debug  bool
}

// NewServer returns a server for the ledger.
func NewServer(ledger *app.Ledger, logger log.Logger, debug bool) *Server {
	return &Server{
		ledger: ledger,
		logger: logger.With("module", "api"),
		debug:  debug,
	}
}

// Router returns the handler serving all endpoints.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withRequest)

	r.HandleFunc("/plans", s.createPlan).Methods("POST")
	r.HandleFunc("/plans/deposit", s.deposit).Methods("POST")
	r.HandleFunc("/plans/beneficiaries", s.addBeneficiary).Methods("POST")
	r.HandleFunc("/plans/validators", s.addValidator).Methods("POST")
	r.HandleFunc("/plans/cancel", s.cancel).Methods("POST")
	r.HandleFunc("/plans/{owner}/confirmations", s.confirmDeath).Methods("POST")
	r.HandleFunc("/plans/{owner}/distribution", s.distribute).Methods("POST")

	r.HandleFunc("/plans/{owner}", s.planStatus).Methods("GET")
	r.HandleFunc("/plans/{owner}/beneficiaries", s.beneficiaries).Methods("GET")
	r.HandleFunc("/plans/{owner}/beneficiaries/{index:[0-9]+}", s.beneficiary).Methods("GET")
	r.HandleFunc("/plans/{owner}/validators", s.validators).Methods("GET")
	r.HandleFunc("/plans/{owner}/validators/{address}", s.validatorIndex).Methods("GET")
	r.HandleFunc("/validators/{address}/plans", s.validatorAssignments).Methods("GET")
	r.HandleFunc("/accounts/{address}/balance", s.balance).Methods("GET")
	r.HandleFunc("/accounts/{address}/receipts", s.receipts).Methods("GET")
	r.HandleFunc("/journal", s.journal).Methods("GET")
	r.HandleFunc("/version", s.version).Methods("GET")
	return r
}

// withRequest tags the request with an id and attributes it to the account
// in AccountHeader.
func (s *Server) withRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := bequest.WithRequestID(r.Context(), id)
		if enc := r.Header.Get(AccountHeader); enc != "" {
			caller, err := bequest.ParseAddress(enc)
			if err != nil {
				s.writeError(w, r.WithContext(ctx), errors.Wrap(err, AccountHeader))
				return
			}
			ctx = bequest.WithCaller(ctx, caller)
		}
		s.logger.Debug("request", "request", id, "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OperationResponse is returned by all endpoints changing the ledger.
type OperationResponse struct {
	Log       string             `json:"log"`
	Transfers []bequest.Transfer `json:"transfers"`
	Version   int64              `json:"version"`
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var msg inheritance.CreateMsg
	s.deliverBody(w, r, &msg)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var msg inheritance.DepositMsg
	s.deliverBody(w, r, &msg)
}

func (s *Server) addBeneficiary(w http.ResponseWriter, r *http.Request) {
	var msg inheritance.AddBeneficiaryMsg
	s.deliverBody(w, r, &msg)
}

func (s *Server) addValidator(w http.ResponseWriter, r *http.Request) {
	var msg inheritance.AddValidatorMsg
	s.deliverBody(w, r, &msg)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.deliver(w, r, &inheritance.CancelMsg{})
}

func (s *Server) confirmDeath(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	s.deliver(w, r, &inheritance.ConfirmDeathMsg{Owner: owner})
}

func (s *Server) distribute(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	s.deliver(w, r, &inheritance.DistributeMsg{Owner: owner})
}

// deliverBody decodes the JSON body into msg and delivers it.
func (s *Server) deliverBody(w http.ResponseWriter, r *http.Request, msg bequest.Msg) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil && err != io.EOF {
		// errors of the address and model decoders are kept
		if errors.IsInternal(err) {
			err = errors.Wrapf(errors.ErrInput, "request body: %s", err)
		}
		s.writeError(w, r, err)
		return
	}
	s.deliver(w, r, msg)
}

func (s *Server) deliver(w http.ResponseWriter, r *http.Request, msg bequest.Msg) {
	res, err := s.ledger.Deliver(r.Context(), msg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	transfers := res.Transfers
	if transfers == nil {
		transfers = []bequest.Transfer{}
	}
	s.writeJSON(w, http.StatusOK, OperationResponse{
		Log:       res.Log,
		Transfers: transfers,
		Version:   s.ledger.Version().Version,
	})
}

func (s *Server) planStatus(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	st, err := s.ledger.PlanStatus(owner)
	s.respond(w, r, st, err)
}

func (s *Server) beneficiaries(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	list, err := s.ledger.Beneficiaries(owner)
	s.respond(w, r, list, err)
}

func (s *Server) beneficiary(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrInput, "index"))
		return
	}
	b, err := s.ledger.Beneficiary(owner, index)
	s.respond(w, r, b, err)
}

func (s *Server) validators(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	list, err := s.ledger.Validators(owner)
	s.respond(w, r, list, err)
}

func (s *Server) validatorIndex(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.pathAddress(w, r, "owner")
	if !ok {
		return
	}
	validator, ok := s.pathAddress(w, r, "address")
	if !ok {
		return
	}
	index, err := s.ledger.ValidatorIndex(owner, validator)
	s.respond(w, r, map[string]int{"index": index}, err)
}

func (s *Server) validatorAssignments(w http.ResponseWriter, r *http.Request) {
	validator, ok := s.pathAddress(w, r, "address")
	if !ok {
		return
	}
	rows, err := s.ledger.ValidatorAssignments(validator)
	s.respond(w, r, rows, err)
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	account, ok := s.pathAddress(w, r, "address")
	if !ok {
		return
	}
	b, err := s.ledger.Balance(account)
	s.respond(w, r, map[string]uint64{"balance": b}, err)
}

func (s *Server) receipts(w http.ResponseWriter, r *http.Request) {
	account, ok := s.pathAddress(w, r, "address")
	if !ok {
		return
	}
	list, err := s.ledger.Receipts(account)
	if list == nil && err == nil {
		s.writeJSON(w, http.StatusOK, []interface{}{})
		return
	}
	s.respond(w, r, list, err)
}

func (s *Server) journal(w http.ResponseWriter, r *http.Request) {
	var owner bequest.Address
	if enc := r.URL.Query().Get("owner"); enc != "" {
		a, err := bequest.ParseAddress(enc)
		if err != nil {
			s.writeError(w, r, errors.Wrap(err, "owner"))
			return
		}
		owner = a
	}
	limit := 100
	if enc := r.URL.Query().Get("limit"); enc != "" {
		n, err := strconv.Atoi(enc)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.Wrap(errors.ErrInput, "limit"))
			return
		}
		limit = n
	}
	entries, err := s.ledger.Journal(r.Context(), owner, limit)
	s.respond(w, r, entries, err)
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	id := s.ledger.Version()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":    bequest.Version(),
		"store":      id.Version,
		"store_hash": id.Hash,
	})
}

// pathAddress decodes the named path variable. On failure the error is
// written and false returned.
func (s *Server) pathAddress(w http.ResponseWriter, r *http.Request, name string) (bequest.Address, bool) {
	a, err := bequest.ParseAddress(mux.Vars(r)[name])
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, name))
		return nil, false
	}
	return a, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v interface{}, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, v)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      uint32 `json:"code"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := httpStatus(err)
	code, msg := errors.Info(err, s.debug)
	id, _ := bequest.GetRequestID(r.Context())
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request", id, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{
		Code:      code,
		Kind:      kind,
		Message:   msg,
		RequestID: id,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("cannot write response", "err", err)
	}
}

var statusCodes = []struct {
	err    *errors.Error
	status int
	kind   string
}{
	{errors.ErrNotFound, http.StatusNotFound, "not_found"},
	{app.ErrNoSuchPath, http.StatusNotFound, "not_found"},
	{errors.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{errors.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{inheritance.ErrNothingToDistribute, http.StatusConflict, "nothing_to_distribute"},
	{inheritance.ErrNotAuthorized, http.StatusForbidden, "not_authorized"},
	{inheritance.ErrDuplicateParticipant, http.StatusUnprocessableEntity, "duplicate_participant"},
	{inheritance.ErrSelfReference, http.StatusUnprocessableEntity, "self_reference"},
	{inheritance.ErrAllocationExceeded, http.StatusUnprocessableEntity, "allocation_exceeded"},
	{errors.ErrInvalidParameter, http.StatusBadRequest, "invalid_parameter"},
	{errors.ErrInput, http.StatusBadRequest, "invalid_input"},
	{errors.ErrEmpty, http.StatusBadRequest, "invalid_input"},
}

// httpStatus maps the error kind to a HTTP status.
func httpStatus(err error) (int, string) {
	for _, c := range statusCodes {
		if c.err.Is(err) {
			return c.status, c.kind
		}
	}
	return http.StatusInternalServerError, "internal"
}
