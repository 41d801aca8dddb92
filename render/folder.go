package render

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lxxca/covid-prevalence-estimate/common"
	"github.com/lxxca/covid-prevalence-estimate/model"
)

var nonFolderChars = regexp.MustCompile(`[^a-z0-9]+`)

// Folder derives the output folder name of a population.
func Folder(pop model.Population) string {
	if pop.Folder != "" {
		return pop.Folder
	}
	folder := nonFolderChars.ReplaceAllString(strings.ToLower(pop.Name), "_")
	folder = strings.Trim(folder, "_")
	if folder == "" {
		return "population"
	}
	return folder
}

// Output locates the files of one population under Root.
type Output struct {
	Root       string
	Population model.Population
	Watermark  Watermark
}

func (o Output) Dir() string {
	return filepath.Join(o.Root, Folder(o.Population))
}

// Path creates the population folder and returns the file path for a suffix
// such as "fit.png".
func (o Output) Path(suffix string) (string, error) {
	dir := o.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", common.ErrRender, dir, err)
	}
	return filepath.Join(dir, Folder(o.Population)+"_"+suffix), nil
}
