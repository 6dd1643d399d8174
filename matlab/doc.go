// Package matlab reads numeric matrices from Level 5 MAT-files and exports
// them as YAML sequences.
//
// Only the parts of the format needed for plain numeric arrays are decoded:
// uncompressed and zlib-compressed elements, either byte order, every
// numeric class, and the real part of each array. Cell arrays, structs,
// character and sparse arrays are skipped while searching for a variable.
package matlab
