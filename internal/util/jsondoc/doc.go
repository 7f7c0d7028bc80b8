// Package jsondoc provides tolerant accessors over loosely-typed JSON objects.
//
// The ComfyUI manager changes field names between releases ("repository"
// vs "repo", "prompt_id" vs "promptId"). Rather than binding responses to
// fixed structs, callers decode into a [Doc] and read each concept through
// an ordered list of aliases.
package jsondoc
