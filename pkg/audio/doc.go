// Package audio groups the audio sub-packages used to turn recordings into
// model features:
//
//   - wavfile: mono PCM WAV decoding and encoding
//   - resampler: sample-rate conversion
//   - segment: fixed-length clip extraction
//   - spectrogram: linear and mel spectrograms
//
// Example usage:
//
//	a, err := wavfile.Read("dog/bark.wav")
//	if err != nil {
//	    return err
//	}
//	samples, err := resampler.Resample(a.Samples, a.SampleRate, 22050)
//	if err != nil {
//	    return err
//	}
//	m := spectrogram.New(spectrogram.DefaultConfig()).Extract(samples)
package audio
