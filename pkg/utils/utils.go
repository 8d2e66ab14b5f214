package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateTxnCode generates a human-readable ledger reference code
func GenerateTxnCode() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	n, _ := rand.Int(rand.Reader, big.NewInt(9999))
	return fmt.Sprintf("TXN-%s-%04d", dateStr, n.Int64())
}

// TrimID normalizes a stored id for comparison. Referrer ids in particular
// may carry incidental whitespace.
func TrimID(id string) string {
	return strings.TrimSpace(id)
}

var phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)

// ValidatePhoneNumber validates a 10-digit Indian mobile number
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(NormalizePhoneNumber(phone))
}

// NormalizePhoneNumber strips formatting and a leading country code
func NormalizePhoneNumber(phone string) string {
	re := regexp.MustCompile(`[^\d]`)
	phone = re.ReplaceAllString(phone, "")

	if strings.HasPrefix(phone, "91") && len(phone) == 12 {
		phone = phone[2:]
	}
	if strings.HasPrefix(phone, "0") && len(phone) == 11 {
		phone = phone[1:]
	}

	return phone
}

// IsValidAmount validates a monetary amount in whole rupees
func IsValidAmount(amount int64) bool {
	return amount > 0 && amount < 1_000_000_000
}

// FormatAmount formats an amount for display
func FormatAmount(amount int64) string {
	return fmt.Sprintf("₹%d", amount)
}

// Time helpers

func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// StartOfDay returns midnight of the given time's day
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween counts whole days from t1 to t2, never negative
func DaysBetween(t1, t2 time.Time) int {
	days := int(t2.Sub(t1).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
