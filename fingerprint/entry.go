package fingerprint

// ComputePartialHashes computes the three request-side partial hashes for
// fp. ContentHash must already be populated on fp.
func ComputePartialHashes(fp *Fingerprint) PartialHashes {
	return PartialHashes{
		InputsHash:   ComputeInputsHash(fp),
		OutputsHash:  ComputeOutputsHash(fp),
		MetadataHash: ComputeMetadataHash(fp),
	}
}

// EntryFilename returns the composite InferEntry filename for a
// (fingerprint, response) pair (spec.md §4.1, P1: this is a pure function
// of its inputs).
func EntryFilename(fp *Fingerprint, resp *Response) string {
	ph := ComputePartialHashes(fp)
	rh := ComputeResponseHash(resp)
	return Filename(ph, rh)
}
