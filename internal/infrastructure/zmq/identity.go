package zmq

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateIdentity returns a random socket identity: a v4 UUID with the
// dashes removed (32 lowercase hex characters).
func GenerateIdentity() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
