package seeder

import (
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// componentDBFile is the shape of <helperRoot>/<category>/_generated/component_db/<type>.json.
type componentDBFile struct {
	ComponentType string                          `json:"component_type"`
	Entries       map[string]componentDBEntry `json:"entries"`
}

type componentDBEntry struct {
	CanonicalName    string            `json:"canonical_name"`
	Maker            string            `json:"maker"`
	Aliases          []string          `json:"aliases"`
	Properties       map[string]string `json:"properties"`
	VariancePolicies map[string]string `json:"__variance_policies"`
	Constraints      map[string][]string `json:"__constraints"`
}

func (sd *Seeder) componentDBKey(category, componentType string) string {
	return sd.helperFiles.ResolveOutputKey(category, "_generated", "component_db", componentType+".json")
}

// seedComponentDB loads one component type's database file and upserts
// every identity, alias, and property value it describes. Returns the
// count of identities processed.
func (sd *Seeder) seedComponentDB(category, componentType string) (int, error) {
	var file componentDBFile
	ok, err := sd.helperFiles.ReadJSONOrNull(sd.componentDBKey(category, componentType), &file)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	count := 0
	for _, entry := range file.Entries {
		identityID, err := sd.store.UpsertComponentIdentity(store.ComponentIdentity{
			Category:      category,
			ComponentType: componentType,
			CanonicalName: entry.CanonicalName,
			Maker:         entry.Maker,
		})
		if err != nil {
			return count, fmt.Errorf("upsert identity %s/%s: %w", entry.CanonicalName, entry.Maker, err)
		}

		for _, alias := range entry.Aliases {
			if err := sd.store.AddComponentAlias(identityID, alias); err != nil {
				return count, fmt.Errorf("add alias %q: %w", alias, err)
			}
		}

		for propertyKey, value := range entry.Properties {
			policy := model.VariancePolicy(entry.VariancePolicies[propertyKey])
			if err := sd.store.UpsertComponentValue(store.ComponentValue{
				Category:       category,
				ComponentType:  componentType,
				CanonicalName:  entry.CanonicalName,
				Maker:          entry.Maker,
				PropertyKey:    propertyKey,
				IdentityID:     identityID,
				Value:          value,
				VariancePolicy: policy,
				Constraints:    entry.Constraints[propertyKey],
			}); err != nil {
				return count, fmt.Errorf("upsert value %s.%s: %w", entry.CanonicalName, propertyKey, err)
			}
		}
		count++
	}
	return count, nil
}

// componentOverrideFile is the shape of one file under
// <helperRoot>/<category>/_overrides/components/.
type componentOverrideFile struct {
	ComponentType string            `json:"componentType"`
	Name          string            `json:"name"`
	Identity      *overrideIdentity `json:"identity"`
	ReviewStatus  string            `json:"review_status"`
	Properties    map[string]string `json:"properties"`
}

type overrideIdentity struct {
	Maker   string   `json:"maker"`
	Aliases []string `json:"aliases"`
}

func (sd *Seeder) componentOverridesDirKey(category string) string {
	return sd.helperFiles.ResolveOutputKey(category, "_overrides", "components")
}

// seedComponentOverrides applies every override file under the category's
// component-overrides directory. A missing directory seeds zero rows, not
// an error.
func (sd *Seeder) seedComponentOverrides(category string) (int, error) {
	keys, err := sd.helperFiles.ListInputKeys(sd.componentOverridesDirKey(category))
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, key := range keys {
		var file componentOverrideFile
		ok, err := sd.helperFiles.ReadJSONOrNull(key, &file)
		if err != nil || !ok {
			if err != nil {
				return applied, fmt.Errorf("decode %s: %w", key, err)
			}
			continue
		}
		if file.ComponentType == "" || file.Name == "" {
			continue
		}

		maker := ""
		var aliases []string
		if file.Identity != nil {
			maker = file.Identity.Maker
			aliases = file.Identity.Aliases
		}

		identityID, err := sd.store.UpsertComponentIdentity(store.ComponentIdentity{
			Category:      category,
			ComponentType: file.ComponentType,
			CanonicalName: file.Name,
			Maker:         maker,
			ReviewStatus:  model.ReviewStatus(file.ReviewStatus),
		})
		if err != nil {
			return applied, fmt.Errorf("upsert override identity %s: %w", file.Name, err)
		}
		for _, alias := range aliases {
			if err := sd.store.AddComponentAlias(identityID, alias); err != nil {
				return applied, err
			}
		}
		for propertyKey, value := range file.Properties {
			if err := sd.store.UpsertComponentValue(store.ComponentValue{
				Category:      category,
				ComponentType: file.ComponentType,
				CanonicalName: file.Name,
				Maker:         maker,
				PropertyKey:   propertyKey,
				IdentityID:    identityID,
				Value:         value,
				Overridden:    true,
			}); err != nil {
				return applied, err
			}
		}
		applied++
	}
	return applied, nil
}
