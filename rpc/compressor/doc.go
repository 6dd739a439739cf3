// Package compressor provides the payload compression codecs of the framed protocol.
//
// A frame whose payload exceeds the configured threshold is compressed with the codec
// selected in the protocol configuration and flagged in its header. Both peers must be
// configured with the same codec. Supported codecs:
//
//   - none: frames are never compressed
//   - snappy: github.com/golang/snappy block format
//   - lz4: github.com/pierrec/lz4/v4 frame format
//   - zstd: github.com/klauspost/compress/zstd
//
// Every decompressor enforces an upper bound on the decoded size so a small compressed
// frame can not expand past the maximum frame size.
package compressor
