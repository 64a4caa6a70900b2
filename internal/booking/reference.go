package booking

import "crypto/rand"

// referenceAlphabet is the character set booking references (PNRs) are
// drawn from.  Six characters over 36 symbols gives a space of roughly
// 2.2 billion codes; collisions are rare but still guarded by the unique
// index on bookings.booking_reference.
const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ReferenceLength is the fixed length of a booking reference.
const ReferenceLength = 6

// maxReferenceAttempts bounds how many fresh candidates the engine tries
// when inserts keep colliding with the unique index.
const maxReferenceAttempts = 5

// rejectionLimit is the largest multiple of len(referenceAlphabet) that
// fits in a byte.  Bytes at or above it are discarded so the modulo draw
// stays uniform over the alphabet.
const rejectionLimit = 256 - 256%len(referenceAlphabet)

// NewReference returns a random candidate booking reference, drawn
// uniformly over the alphabet.  Uniqueness is not guaranteed here: the
// caller must insert under the unique constraint and regenerate on
// ErrDuplicateReference.
func NewReference() (string, error) {
    out := make([]byte, 0, ReferenceLength)
    buf := make([]byte, 2*ReferenceLength)
    for len(out) < ReferenceLength {
        if _, err := rand.Read(buf); err != nil {
            return "", err
        }
        for _, b := range buf {
            if int(b) >= rejectionLimit {
                continue
            }
            out = append(out, referenceAlphabet[int(b)%len(referenceAlphabet)])
            if len(out) == ReferenceLength {
                break
            }
        }
    }
    return string(out), nil
}
