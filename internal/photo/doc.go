// Package photo recognizes VRChat photo files and extracts the metadata the
// index stores for each one: the capture time encoded in the file name and
// the pixel dimensions read from the image header.
package photo
