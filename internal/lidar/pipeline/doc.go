// Package pipeline is the composition root of the perception pipeline.
//
// It wires the layer packages (l2frames, l4perception, l5tracks, l6objects)
// into a sequential per-frame flow: ground removal, clustering, feature
// extraction and classification, identity tracking, and linkage of
// identities back to features. Result sinks (JSON files, SQLite) are
// adapters that receive one FrameResult per frame.
//
// None of the layer packages import pipeline.
package pipeline
