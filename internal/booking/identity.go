package booking

// identity.go validates passenger national identity numbers.  The number
// is 11 digits with two checksum digits derived from the first nine:
//
//   digit[9]  = ((d0+d2+d4+d6+d8)×7 − (d1+d3+d5+d7)) mod 10
//   digit[10] = (d0+…+d9) mod 10
//
// Additionally the first digit must not be zero and the first ten digits
// must not all be identical.  The identical-digit check has to look at
// the first ten only: when d0..d9 are all the same the second checksum
// digit is always 0, so "11111111110" would otherwise sneak through.

// ValidIdentityNumber reports whether the given string is a well-formed
// national identity number under the checksum rules above.
func ValidIdentityNumber(s string) bool {
    if len(s) != 11 {
        return false
    }
    var d [11]int
    for i := 0; i < 11; i++ {
        ch := s[i]
        if ch < '0' || ch > '9' {
            return false
        }
        d[i] = int(ch - '0')
    }
    if d[0] == 0 {
        return false
    }
    allSame := true
    for i := 1; i < 10; i++ {
        if d[i] != d[0] {
            allSame = false
            break
        }
    }
    if allSame {
        return false
    }
    odd := d[0] + d[2] + d[4] + d[6] + d[8]
    even := d[1] + d[3] + d[5] + d[7]
    // mod of a possibly negative value must stay in 0..9
    check10 := ((odd*7-even)%10 + 10) % 10
    if d[9] != check10 {
        return false
    }
    sum := 0
    for i := 0; i < 10; i++ {
        sum += d[i]
    }
    return d[10] == sum%10
}
