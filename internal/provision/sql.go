package provision

import (
	"fmt"
	"strings"
)

// The backslash escapes assume NO_BACKSLASH_ESCAPES is off, the MariaDB
// default. Quotes are doubled so they stay correct in either sql_mode.
var sqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `''`,
	"\x00", `\0`,
	"\n", `\n`,
	"\r", `\r`,
	"\x1a", `\Z`,
)

// sqlString quotes s as a MariaDB string literal.
func sqlString(s string) string {
	return "'" + sqlEscaper.Replace(s) + "'"
}

// sqlIdent quotes s as a MariaDB identifier.
func sqlIdent(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// DatabaseScript returns the SQL that creates the WordPress database and a
// local user owning it. Every statement is safe to run again. With
// resetPassword an existing user also gets the given password.
func DatabaseScript(dbName, dbUser, dbPassword string, resetPassword bool) string {
	account := sqlString(dbUser) + "@'localhost'"
	pass := sqlString(dbPassword)
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci;", sqlIdent(dbName)),
		fmt.Sprintf("CREATE USER IF NOT EXISTS %s IDENTIFIED BY %s;", account, pass),
	}
	if resetPassword {
		stmts = append(stmts, fmt.Sprintf("ALTER USER %s IDENTIFIED BY %s;", account, pass))
	}
	stmts = append(stmts,
		fmt.Sprintf("GRANT ALL PRIVILEGES ON %s.* TO %s;", sqlIdent(dbName), account),
		"FLUSH PRIVILEGES;",
	)
	return strings.Join(stmts, "\n") + "\n"
}
