// Package drive implements the user-facing flows of the file drive on top of
// a wallet session: uploading a file (pin, then record its URL on the
// contract), listing own or shared files, and granting or revoking read
// access.
//
// Each flow keeps its transient state in a form type (UploadForm, FileList,
// ShareForm, FileSelection) that front-ends render. Failures are reported
// twice: as a Go error wrapping one of the Err* sentinels, and as a short
// Msg* text meant for display next to the control that triggered them.
package drive
