// internal/config/database.go
package config

import (
	"fmt"
)

// DSN builds the connection string. Timestamps (assignment dates, seat
// expirations) are stored and compared in UTC.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC application_name=equipdesk",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}
