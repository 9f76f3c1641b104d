// Package ports defines the contracts between the animation core and its
// external collaborators: the pose-sampling service that owns clip data
// and the host-writable parameter store read by transition conditions and
// blend trees. Keeping these as interfaces decouples the core from any
// particular asset pipeline or component storage.
package ports
