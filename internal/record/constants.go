// Package record defines the on-disk block format and its codec.
package record

// LengthSize is the size in bytes of one length prefix
const LengthSize = 4

// HeaderSize is the total size of block metadata (key length + value length)
const HeaderSize = 2 * LengthSize // 8 bytes
