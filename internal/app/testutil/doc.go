// Package testutil provides testify mocks for the provider and notifier
// interfaces plus canned transcripts and provider replies.
package testutil
