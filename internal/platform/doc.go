// Package platform is a small HTTP/JSON client for the hosted plugin engine
// that performs video import, transcription, and text generation.
//
// Every call is a POST to <base_url>/<operation>; responses carry a
// {"data", "status"} envelope where status describes the asynchronous task
// the call started. WaitTask polls such tasks with exponential backoff until
// they finish or the caller's wait budget is spent.
package platform
