// Package context contains the application context shared by CLI commands.
//
// This package only exists to avoid a circular import between the app and cli
// packages, otherwise these types belong in the app package.
package context
