package lifts

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DefaultCatalog is the built-in lift list in strip order. The first entry
// drives LED 1. Names must match the status API keys exactly.
var DefaultCatalog = []string{
	"Chavannes",
	"Nauchets",
	"Rosta",
	"Grand Cry",
	"Ranfoilly",
	"Folliets",
	"Vieux Chêne",
	"Bleuets",
	"Mouilles",
	"Crêtes",
	"Perrières",
	"Combettes",
	"Mont Chéry",
	"Pointe",
	"Belvédère",
	"Charniaz",
	"Bossonnets",
	"Turche",
	"Leschaux",
	"Chamossière",
	"Stade",
	"Zore",
	"Derby",
	"Pleney",
	"Fys",
	"Troncs",
	"Nyon",
	"Pointe de Nyon",
	"Atray",
	"Ruchat",
	"Mouflons",
	"Écureuils",
	"Grande Ourse",
	"Sapins",
	"Tétras",
	"Chalets",
	"Ravines",
	"Gentianes",
	"Lac",
	"Marmottes",
	"Granges",
	"Bois Venants",
	"Prodains",
	"Super Morzine",
	"Chardonnière",
	"Mossettes",
}

// catalogFile is the on-disk layout of a catalog override.
type catalogFile struct {
	Names []string `toml:"names"`
}

// LoadCatalog reads an ordered catalog from a TOML file with a top-level
// names array. An empty path returns DefaultCatalog.
func LoadCatalog(path string) ([]string, error) {
	if path == "" {
		return DefaultCatalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lift catalog: %w", err)
	}

	var cf catalogFile
	if err := toml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse lift catalog: %w", err)
	}

	if len(cf.Names) == 0 {
		return nil, fmt.Errorf("lift catalog %s has no names", path)
	}

	return cf.Names, nil
}
