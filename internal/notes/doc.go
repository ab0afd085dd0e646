// package notes holds the signed-in user's notes and keeps them in step with the API.
//
// Every [Service] operation talks to the backend first and only changes the held
// collection when the call succeeds. Failures are logged and reported to the
// caller as nil or false; nothing is returned as an error.
package notes
