package validation

import "strings"

// OnlyDigits strips every non-digit rune from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsCpfCnpj reports whether s is a valid CPF (11 digits) or CNPJ (14 digits).
// Punctuation is ignored.
func IsCpfCnpj(s string) bool {
	d := OnlyDigits(s)
	switch len(d) {
	case 11:
		return validCPF(d)
	case 14:
		return validCNPJ(d)
	}
	return false
}

// IsCEP reports whether s is a Brazilian postal code: 8 digits, with an
// optional hyphen before the last three.
func IsCEP(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) == 9 && s[5] == '-' {
		s = s[:5] + s[6:]
	}
	return len(s) == 8 && OnlyDigits(s) == s
}

// IsPhoneBR reports whether s is a Brazilian phone with area code
// (10 or 11 digits), optionally prefixed by the country code 55.
func IsPhoneBR(s string) bool {
	d := OnlyDigits(s)
	if strings.HasPrefix(strings.TrimSpace(s), "+") || len(d) > 11 {
		if !strings.HasPrefix(d, "55") {
			return false
		}
		d = d[2:]
	}
	if len(d) != 10 && len(d) != 11 {
		return false
	}
	// area codes start at 11
	if d[0] == '0' || d[1] == '0' {
		return false
	}
	if len(d) == 11 && d[2] != '9' {
		return false
	}
	return true
}

func allSame(d string) bool {
	return strings.Count(d, d[:1]) == len(d)
}

func validCPF(d string) bool {
	if allSame(d) {
		return false
	}
	for _, n := range []int{9, 10} {
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * (n + 1 - i)
		}
		check := sum * 10 % 11
		if check == 10 {
			check = 0
		}
		if check != int(d[n]-'0') {
			return false
		}
	}
	return true
}

var cnpjWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

func validCNPJ(d string) bool {
	if allSame(d) {
		return false
	}
	for _, n := range []int{12, 13} {
		weights := cnpjWeights[13-n:]
		sum := 0
		for i := 0; i < n; i++ {
			sum += int(d[i]-'0') * weights[i]
		}
		check := sum % 11
		if check < 2 {
			check = 0
		} else {
			check = 11 - check
		}
		if check != int(d[n]-'0') {
			return false
		}
	}
	return true
}
