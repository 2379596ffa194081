// Package formats reads and writes rig and terrain asset files: the YAML rig
// format, RSM node hierarchies with keyframes, and GAT altitude tables.
package formats
