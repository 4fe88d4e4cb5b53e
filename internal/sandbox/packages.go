package sandbox

// Image is the prebuilt sandbox image name. Its construction, installing a
// fixed data-processing library set, is an external collaborator's
// responsibility; this package only depends on the mount and exit contract
// it satisfies.
const Image = "recipeforge/sandbox:latest"

// RequiredPackages names the fixed data-processing library set the sandbox
// image is built with. This package never installs or imports them itself;
// the list exists so an image spec can be checked against the contract
// before any recipe is dispatched.
var RequiredPackages = []string{
	"numpy",
	"pandas",
	"xlrd",
	"openpyxl",
	"markdownify",
	"sentence-transformers",
}

// MissingPackages returns the entries of RequiredPackages absent from
// installed. A non-empty result means the image does not satisfy the
// execution contract and recipes dispatched to it would fail for reasons no
// recipe author can fix.
func MissingPackages(installed []string) []string {
	have := make(map[string]bool, len(installed))
	for _, p := range installed {
		have[p] = true
	}

	var missing []string
	for _, p := range RequiredPackages {
		if !have[p] {
			missing = append(missing, p)
		}
	}
	return missing
}
