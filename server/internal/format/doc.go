// Package format renders projection figures as display strings.
package format
