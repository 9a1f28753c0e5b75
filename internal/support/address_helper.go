package support

import (
	"fmt"
	"regexp"
	"strings"
)

var ipv4Regex = regexp.MustCompile(`\b(?:[0-9]{1,3}\.){3}[0-9]{1,3}\b`)

// FindIP identifies the first IPv4 address in a given string.
func FindIP(input string) string {
	return ipv4Regex.FindString(input)
}

// ParseDottedQuad validates addr as four dot-separated integers, each in
// [0,255], and returns the octets.
func ParseDottedQuad(addr string) ([4]int, bool) {
	var octets [4]int

	parts := strings.Split(addr, ".")
	if len(parts) != 4 {
		return octets, false
	}

	for i, part := range parts {
		if len(part) == 0 || len(part) > 3 {
			return octets, false
		}

		value := 0
		for _, c := range part {
			if c < '0' || c > '9' {
				return octets, false
			}
			value = value*10 + int(c-'0')
		}
		if value > 255 {
			return octets, false
		}

		octets[i] = value
	}

	return octets, true
}

// SplitPrefix splits a valid dotted quad into its /24 prefix ("a.b.c") and
// last octet.
func SplitPrefix(addr string) (prefix string, lastOctet int, ok bool) {
	octets, ok := ParseDottedQuad(addr)
	if !ok {
		return "", 0, false
	}

	idx := strings.LastIndexByte(addr, '.')
	return addr[:idx], octets[3], true
}

// JoinPrefix builds a dotted quad from a /24 prefix and a last octet.
func JoinPrefix(prefix string, lastOctet int) string {
	return fmt.Sprintf("%s.%d", prefix, lastOctet)
}
