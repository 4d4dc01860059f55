// Package preflight provides readiness checks for the filesystem paths and
// external services audiodesc depends on.
//
// The CLI "audiodesc config validate" command runs them after loading the
// config. Directory checks always run; engine and LLM checks only run with
// Options.Online because they make network calls.
//
// Backend checks are gated by generator.backend; unused backends are skipped.
package preflight
