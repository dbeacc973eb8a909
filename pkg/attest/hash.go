package attest

import "crypto/sha256"

// newSHA256 is the hash.Hash factory golang.org/x/crypto/hkdf.New expects.
var newSHA256 = sha256.New
