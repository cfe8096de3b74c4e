package app

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/iov-one/bequest"
	"github.com/iov-one/bequest/bequesttest/assert"
	"github.com/iov-one/bequest/errors"
	"github.com/iov-one/bequest/store"
)

func TestLoadGenesis(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.json")
	if err := ioutil.WriteFile(path, []byte(`{"conf": {"inheritance": {}}, "inheritance": {"plans": []}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadGenesis(path)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(opts))

	_, err = LoadGenesis(filepath.Join(dir, "missing.json"))
	assert.IsErr(t, errors.ErrInput, err)

	broken := filepath.Join(dir, "broken.json")
	if err := ioutil.WriteFile(broken, []byte(`{"conf"`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadGenesis(broken)
	assert.IsErr(t, errors.ErrInput, err)
}

type recordingInit struct {
	calls *[]string
	name  string
	err   error
}

func (r recordingInit) FromGenesis(bequest.Options, bequest.KVStore) error {
	*r.calls = append(*r.calls, r.name)
	return r.err
}

func TestChainInitializers(t *testing.T) {
	var calls []string
	ini := ChainInitializers(
		recordingInit{calls: &calls, name: "a"},
		recordingInit{calls: &calls, name: "b", err: errors.ErrHuman},
		recordingInit{calls: &calls, name: "c"},
	)
	err := ini.FromGenesis(bequest.Options{}, store.MemStore())
	assert.IsErr(t, errors.ErrHuman, err)
	assert.Equal(t, []string{"a", "b"}, calls)
}
