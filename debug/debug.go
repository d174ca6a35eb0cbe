// Package debug provides env-toggled trace logging. All output goes to
// stderr: stdout may be the language-server protocol channel.
package debug

import (
	"fmt"
	"os"
	"strconv"
)

type debug struct {
	Lex      bool
	Parse    bool
	Schema   bool
	Validate bool
	LangSvr  bool
}

var d *debug

func init() {
	d = &debug{}
	d.Lex = boolEnv("TOML_DEBUG_LEX")
	d.Parse = boolEnv("TOML_DEBUG_PARSE")
	d.Schema = boolEnv("TOML_DEBUG_SCHEMA")
	d.Validate = boolEnv("TOML_DEBUG_VALIDATE")
	d.LangSvr = boolEnv("TOML_DEBUG_LANGSVR")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Lex() bool      { return d.Lex }
func Parse() bool    { return d.Parse }
func Schema() bool   { return d.Schema }
func Validate() bool { return d.Validate }
func LangSvr() bool  { return d.LangSvr }

func Logf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg, args...)
}

func Lexf(msg string, args ...any) {
	if d.Lex {
		Logf(msg, args...)
	}
}

func Parsef(msg string, args ...any) {
	if d.Parse {
		Logf(msg, args...)
	}
}

func Schemaf(msg string, args ...any) {
	if d.Schema {
		Logf(msg, args...)
	}
}

func Validatef(msg string, args ...any) {
	if d.Validate {
		Logf(msg, args...)
	}
}

func LangSvrf(msg string, args ...any) {
	if d.LangSvr {
		Logf(msg, args...)
	}
}
