// Package validation содержит чистые предикаты для проверки полей формы бронирования.
// Каждый предикат определён для любой строки, пустая строка просто не проходит проверку.
package validation

import (
	"regexp"
	"strings"
	"time"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email проверяет форму local@domain.tld без полного соответствия RFC.
func Email(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Phone: 10–15 цифр после удаления всех остальных символов.
func Phone(s string) bool {
	n := len(Digits(s))
	return n >= 10 && n <= 15
}

// PostalCode: ровно 5 цифр.
func PostalCode(s string) bool {
	return len(s) == 5 && isDigits(s)
}

// CardNumber: 13–19 цифр и корректная контрольная сумма Луна.
func CardNumber(s string) bool {
	d := Digits(s)
	if len(d) < 13 || len(d) > 19 {
		return false
	}
	return Luhn(d)
}

// Luhn проверяет контрольную сумму строки из цифр.
func Luhn(digits string) bool {
	if digits == "" || !isDigits(digits) {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		n := int(digits[i] - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

// Expiry принимает срок в виде MMYY (разделители игнорируются).
// Месяц 1–12, срок не раньше текущего месяца.
func Expiry(s string, now time.Time) bool {
	d := Digits(s)
	if len(d) != 4 {
		return false
	}
	month := int(d[0]-'0')*10 + int(d[1]-'0')
	year := 2000 + int(d[2]-'0')*10 + int(d[3]-'0')
	if month < 1 || month > 12 {
		return false
	}
	if year != now.Year() {
		return year > now.Year()
	}
	return month >= int(now.Month())
}

// CVC: 3 или 4 цифры.
func CVC(s string) bool {
	return (len(s) == 3 || len(s) == 4) && isDigits(s)
}

// Digits оставляет в строке только цифры.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
