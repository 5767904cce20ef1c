package collector

import "strings"

// buildFunctionSelectorTokens pre-computes the selector token set for
// a function record from its canonical name, scope variants, path
// signature, and hash.
func buildFunctionSelectorTokens(f *FunctionRecord) map[string]struct{} {
	tokens := map[string]struct{}{}
	add := func(s string) {
		if s == "" {
			return
		}
		tokens[s] = struct{}{}
		tokens[strings.ToLower(s)] = struct{}{}
	}

	add(f.CanonicalName)
	add(f.OriginalName)
	add(f.PathSignature)
	add(f.Digest)
	for _, variant := range pathSuffixVariants(f.PathSignature) {
		add(variant)
	}

	if len(f.ScopeChain) > 0 {
		owner := f.ScopeChain[len(f.ScopeChain)-1].Owner
		if owner != "" && owner != f.OriginalName {
			for _, v := range ExpandOwnerVariants(owner, f.OriginalName) {
				add(v)
			}
		}
	}
	return tokens
}

// buildVariableSelectorTokens pre-computes the selector token set for
// a variable record.
func buildVariableSelectorTokens(v *VariableRecord) map[string]struct{} {
	tokens := map[string]struct{}{}
	add := func(s string) {
		if s == "" {
			return
		}
		tokens[s] = struct{}{}
		tokens[strings.ToLower(s)] = struct{}{}
	}

	add(v.Name)
	add(v.BindingPath)
	add(v.DeclaratorPath)
	add(v.DeclarationPath)
	add(v.BindingDigest)
	add(v.DeclaratorDigest)
	add(v.DeclarationDigest)
	for _, path := range []string{v.BindingPath, v.DeclaratorPath, v.DeclarationPath} {
		for _, variant := range pathSuffixVariants(path) {
			add(variant)
		}
	}
	return tokens
}
