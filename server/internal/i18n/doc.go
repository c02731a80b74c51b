// Package i18n holds the dashboard's English and Chinese label tables and
// picks the language for a request.
package i18n
