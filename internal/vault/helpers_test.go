package vault

import (
	"encoding/hex"
	"errors"
)

func errorIs(err, target error) bool {
	return errors.Is(err, target)
}

func hexEncode(b []byte) string {
	return hex.EncodeToString(b)
}
