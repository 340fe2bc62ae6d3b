// Package process terminates browser process trees left by an engine session.
package process
