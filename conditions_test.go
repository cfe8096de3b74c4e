package bequest_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressPrinting(t *testing.T) {
	Convey("test hexademical address printing", t, func() {
		addr := bequest.Address([]byte("ABCD123456LHB0123456"))

		So(addr.String(), ShouldEqual, fmt.Sprintf("%X", []byte(addr)))
		So(bequest.Address(nil).String(), ShouldEqual, "(nil)")
	})

	Convey("test hexademical condition printing", t, func() {
		cond := bequest.NewCondition("inherit", "plan", []byte("ABCD123456LHB"))

		So(cond.String(), ShouldEqual, fmt.Sprintf("inherit/plan/%X", []byte("ABCD123456LHB")))
		So(cond.Validate(), ShouldBeNil)
	})
}

func TestParseAddress(t *testing.T) {
	const contract = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

	raw := []byte("twenty-byte-address!")
	b32, err := bequest.Address(raw).Bech32()
	require.NoError(t, err)
	broken := b32[:len(b32)-1] + "q"
	if strings.HasSuffix(b32, "q") {
		broken = b32[:len(b32)-1] + "p"
	}

	cases := map[string]struct {
		enc      string
		wantErr  *errors.Error
		wantAddr bequest.Address
	}{
		"hex without prefix": {
			enc:      fmt.Sprintf("%X", raw),
			wantAddr: raw,
		},
		"lower case hex": {
			enc:      strings.ToLower(fmt.Sprintf("%X", raw)),
			wantAddr: raw,
		},
		"bech32 with ledger prefix": {
			enc:      b32,
			wantAddr: raw,
		},
		"bech32 with explicit format": {
			enc:      "bech32:" + b32,
			wantAddr: raw,
		},
		"empty": {
			enc:     "",
			wantErr: errors.ErrEmpty,
		},
		"hex of a wrong size": {
			enc:     "0102",
			wantErr: errors.ErrInput,
		},
		"not hex at all": {
			enc:     "zzzz",
			wantErr: errors.ErrInput,
		},
		"0x address too short": {
			enc:     "0x5FbDB2315678",
			wantErr: errors.ErrInput,
		},
		"broken bech32 checksum": {
			enc:     broken,
			wantErr: errors.ErrInput,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			addr, err := bequest.ParseAddress(tc.enc)
			if tc.wantErr != nil {
				if !tc.wantErr.Is(err) {
					t.Fatalf("want %q error, got %+v", tc.wantErr, err)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantAddr, addr)
		})
	}

	t.Run("0x checksummed address", func(t *testing.T) {
		addr, err := bequest.ParseAddress(contract)
		require.NoError(t, err)
		assert.Len(t, addr, bequest.AddressLength)
		assert.True(t, strings.EqualFold(contract, addr.Hex()))
	})
}

func TestAddressJSON(t *testing.T) {
	addr := bequest.NewCondition("inherit", "plan", []byte("owner")).Address()

	raw, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.Equal(t, `"`+addr.String()+`"`, string(raw))

	var got bequest.Address
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, addr, got)

	require.NoError(t, json.Unmarshal([]byte(`""`), &got))
	assert.Nil(t, got)

	err = json.Unmarshal([]byte(`"not-an-address"`), &got)
	assert.True(t, errors.ErrInput.Is(err))
}

func TestConditionAddressIsStable(t *testing.T) {
	a := bequest.NewCondition("inherit", "plan", []byte("owner")).Address()
	b := bequest.NewCondition("inherit", "plan", []byte("owner")).Address()
	c := bequest.NewCondition("inherit", "plan", []byte("other")).Address()

	assert.Len(t, a, bequest.AddressLength)
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}
