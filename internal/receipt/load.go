package receipt

import "strings"

// LoadExtractor builds an extractor from an optional policy file and an
// optional refine script. Empty paths fall back to the built-in policies and
// no hook.
func LoadExtractor(policyPath, scriptPath string, opts ...Option) (*Extractor, error) {
	var policies *PolicySet
	if path := strings.TrimSpace(policyPath); path != "" {
		loaded, err := LoadPolicyFile(path)
		if err != nil {
			return nil, err
		}
		policies = loaded
	}
	if path := strings.TrimSpace(scriptPath); path != "" {
		hook, err := LoadScript(path)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithHook(hook))
	}
	return NewExtractor(policies, opts...), nil
}
