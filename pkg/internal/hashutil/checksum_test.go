package hashutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksum(t *testing.T) {
	// sha256 of the empty string, base64url without padding
	assert.Equal(t, "sha256=47DEQpj8HBSa-_TImW-5JCeuQeRkm5NMpJWZG3hSuFU", Checksum(nil))
	assert.Equal(t, "sha256=WJG1tSLV3whtD_CxEPvZ0hu0_HFjrzTQgoai6Eb2vgM", Checksum([]byte("hello\n")))

	// Same content, same digest
	assert.Equal(t, Checksum([]byte("abc")), Checksum([]byte("abc")))
	assert.NotEqual(t, Checksum([]byte("abc")), Checksum([]byte("abd")))
}
