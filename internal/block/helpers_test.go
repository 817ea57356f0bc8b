package block

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

type signerKeys struct {
	pub  *mldsa65.PublicKey
	priv *mldsa65.PrivateKey
}

func cryptoRandReader() io.Reader {
	return rand.Reader
}

func bytesErrorIs(err, target error) bool {
	return errors.Is(err, target)
}
