package store

// Model groups together key and value to return
type Model struct {
	Key   []byte
	Value []byte
}

// SliceIterator iterates over a snapshot of models.
type SliceIterator struct {
	data []Model
	idx  int
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator creates a new Iterator over this slice
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

// Valid returns true if the iterator points to a model.
func (s *SliceIterator) Valid() bool {
	return s.idx < len(s.data)
}

// Next moves to the next model. It panics past the end.
func (s *SliceIterator) Next() {
	s.assertValid()
	s.idx++
}

func (s *SliceIterator) assertValid() {
	if s.idx >= len(s.data) {
		panic("passed end of slice")
	}
}

// Key returns the key of the cursor.
func (s *SliceIterator) Key() []byte {
	s.assertValid()
	return s.data[s.idx].Key
}

// Value returns the value of the cursor.
func (s *SliceIterator) Value() []byte {
	s.assertValid()
	return s.data[s.idx].Value
}

// Close releases the Iterator.
func (s *SliceIterator) Close() {
	s.data = nil
}

// emptyStore never holds any data. It is the bottom layer of MemStore.
type emptyStore struct{}

var _ ReadOnlyKVStore = emptyStore{}

func (emptyStore) Get([]byte) ([]byte, error) { return nil, nil }
func (emptyStore) Has([]byte) (bool, error)   { return false, nil }
func (emptyStore) Set([]byte, []byte) error   { return nil }
func (emptyStore) Delete([]byte) error        { return nil }
func (emptyStore) Iterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}
func (emptyStore) ReverseIterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

// op is a single pending write, a delete when del is set.
type op struct {
	key   []byte
	value []byte
	del   bool
}

func (o op) apply(out SetDeleter) error {
	if o.del {
		return out.Delete(o.key)
	}
	return out.Set(o.key, o.value)
}

// opBatch piles up writes and replays them on out. It is not atomic and
// only backs in-memory cache layers.
type opBatch struct {
	out SetDeleter
	ops []op
}

var _ Batch = (*opBatch)(nil)

func newOpBatch(out SetDeleter) *opBatch {
	return &opBatch{out: out}
}

func (b *opBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, op{key: key, value: value})
	return nil
}

func (b *opBatch) Delete(key []byte) error {
	b.ops = append(b.ops, op{key: key, del: true})
	return nil
}

// Write replays all writes in order and resets the batch.
func (b *opBatch) Write() error {
	for _, o := range b.ops {
		if err := o.apply(b.out); err != nil {
			return err
		}
	}
	b.ops = nil
	return nil
}
