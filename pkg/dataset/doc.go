// Package dataset turns directories of labelled WAV files into spectrogram
// datasets for classifier training.
//
// A build walks up to three partition roots (train, test, eval). Every WAV
// file is cut into fixed-duration sub-clips, each sub-clip becomes one
// spectrogram sample, and the sample is labelled with the integer id of the
// file's parent directory name. Ids come from a Registry shared by all
// partitions, so a class keeps its id across train, test and eval.
//
// Held-out partitions whose root is not given are derived by splitting the
// train partition with a seeded generator. A Writer then stores each
// partition as a pair of .npy files next to the class mapping and a run
// manifest:
//
//	train_data.npy    float32 (N, rows, cols)
//	train_labels.npy  int64   (N,)
//	test_data.npy     ...
//	classes           msgpack {name: id}, id order
//	manifest.yaml
package dataset
