package bequest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iov-one/bequest"
)

func TestVersion(t *testing.T) {
	bequest.GitCommit = ""
	assert.Equal(t, "v0.1.0-dev", bequest.Version())

	bequest.GitCommit = "12345678"
	assert.Equal(t, "v0.1.0-dev 12345678", bequest.Version())
	bequest.GitCommit = ""
}
