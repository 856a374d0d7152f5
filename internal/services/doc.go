// Package services defines the shared error taxonomy and context plumbing
// used by pipeline stages and their external collaborators.
package services
