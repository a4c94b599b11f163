package store

import (
	"database/sql"
	"math"
	"strings"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// CascadeResult is the outcome of pushing or evaluating one Component
// Value's change across its linked products (spec.md §4.1 "Cascade
// algorithm").
type CascadeResult struct {
	Violations []string
	Compliant  []string
}

// linkedProducts returns the product ids linked to (componentType,
// canonicalName, maker) via Item-Component Link, for the given field.
func (s *Store) linkedProducts(category, componentType, canonicalName, maker, propertyKey string) ([]string, error) {
	rows, err := s.db.Query(`SELECT l.product_id FROM item_component_links l
		JOIN component_identities ci ON ci.id = l.identity_id
		WHERE l.category = ? AND ci.component_type = ? AND ci.canonical_name = ? AND ci.maker = ? AND l.field_key = ?`,
		category, componentType, canonicalName, maker, propertyKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// PushAuthoritativeValue implements step 2 of the cascade algorithm: for
// every linked product, upsert its Item Field State for property to the
// component's new authoritative value, one transaction.
func (s *Store) PushAuthoritativeValue(category, componentType, canonicalName, maker, property, valueNew string) (CascadeResult, error) {
	products, err := s.linkedProducts(category, componentType, canonicalName, maker, property)
	if err != nil {
		return CascadeResult{}, err
	}

	err = s.withTx(func(tx *sql.Tx) error {
		for _, p := range products {
			_, err := tx.Exec(`INSERT INTO item_field_states
				(category, product_id, field_key, value, confidence, accepted_candidate_id, overridden, needs_ai_review, ai_review_complete)
				VALUES (?,?,?,?,1.0,NULL,0,0,?)
				ON CONFLICT(category, product_id, field_key) DO UPDATE SET
					value=excluded.value, confidence=1.0, accepted_candidate_id=NULL, overridden=0, needs_ai_review=0`,
				category, p, property, valueNew, 0)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return CascadeResult{}, err
	}
	return CascadeResult{Compliant: products}, nil
}

// EvaluateVariance implements step 3 of the cascade algorithm for the
// upper_bound / lower_bound / range policies.
func (s *Store) EvaluateVariance(category, componentType, canonicalName, maker, property, valueNew string, policy model.VariancePolicy) (CascadeResult, error) {
	products, err := s.linkedProducts(category, componentType, canonicalName, maker, property)
	if err != nil {
		return CascadeResult{}, err
	}

	var result CascadeResult
	err = s.withTx(func(tx *sql.Tx) error {
		for _, p := range products {
			compliant := varianceCompliant(tx, category, p, property, valueNew, policy)
			if compliant {
				result.Compliant = append(result.Compliant, p)
			} else {
				result.Violations = append(result.Violations, p)
			}
			if _, err := tx.Exec(`UPDATE item_field_states SET needs_ai_review = ? WHERE category=? AND product_id=? AND field_key=?`,
				boolToInt(!compliant), category, p, property); err != nil {
				return err
			}
		}
		return nil
	})
	return result, err
}

func varianceCompliant(tx *sql.Tx, category, productID, property, valueNew string, policy model.VariancePolicy) bool {
	var vCur string
	err := tx.QueryRow(`SELECT value FROM item_field_states WHERE category=? AND product_id=? AND field_key=?`,
		category, productID, property).Scan(&vCur)
	if err == sql.ErrNoRows {
		return true
	}
	if err != nil {
		return true
	}
	if model.IsUnknown(vCur) || model.IsUnknown(valueNew) {
		return true
	}

	curNum, curOK := model.ParseNumber(vCur)
	newNum, newOK := model.ParseNumber(valueNew)
	if !curOK || !newOK {
		return true
	}

	switch policy {
	case model.PolicyUpperBound:
		return !(curNum > newNum)
	case model.PolicyLowerBound:
		return !(curNum < newNum)
	case model.PolicyRange:
		return !(math.Abs(curNum-newNum) > 0.10*math.Abs(newNum))
	default:
		return true
	}
}

// EvaluateConstraints implements step 4 of the cascade algorithm: each
// constraint expression is resolved against the component's property map
// first, then the product's field map, in both original and snake-case
// normalized variable forms, and evaluated with one of <= >= < > == !=.
func (s *Store) EvaluateConstraints(category, componentType, canonicalName, maker string, properties map[string]string, constraints []string) (CascadeResult, error) {
	productSet := make(map[string]struct{})
	for property := range properties {
		products, err := s.linkedProducts(category, componentType, canonicalName, maker, property)
		if err != nil {
			return CascadeResult{}, err
		}
		for _, p := range products {
			productSet[p] = struct{}{}
		}
	}

	var result CascadeResult
	err := s.withTx(func(tx *sql.Tx) error {
		for p := range productSet {
			fieldMap, err := productFieldMap(tx, category, p)
			if err != nil {
				return err
			}

			violated := false
			for _, expr := range constraints {
				ok, skip := evaluateConstraintExpr(expr, properties, fieldMap)
				if skip {
					continue
				}
				if !ok {
					violated = true
				}
			}

			if violated {
				result.Violations = append(result.Violations, p)
			} else {
				result.Compliant = append(result.Compliant, p)
			}

			for property := range properties {
				if _, err := tx.Exec(`UPDATE item_field_states SET needs_ai_review = ? WHERE category=? AND product_id=? AND field_key=?`,
					boolToInt(violated), category, p, property); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return result, err
}

func productFieldMap(tx *sql.Tx, category, productID string) (map[string]string, error) {
	rows, err := tx.Query(`SELECT field_key, value FROM item_field_states WHERE category=? AND product_id=?`, category, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, rows.Err()
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		if r == ' ' || r == '-' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func resolveVariable(name string, componentProps, productFields map[string]string) (string, bool) {
	candidates := []string{name, snakeCase(name)}
	for _, c := range candidates {
		if v, ok := componentProps[c]; ok {
			return v, true
		}
	}
	for _, c := range candidates {
		if v, ok := productFields[c]; ok {
			return v, true
		}
	}
	return "", false
}

var constraintOperators = []string{"<=", ">=", "==", "!=", "<", ">"}

// evaluateConstraintExpr parses and evaluates a single "lhs OP rhs"
// expression. lhs and rhs may be free identifiers (resolved against
// componentProps then productFields) or literals. Returns (satisfied, skip)
// where skip is true when the expression cannot be evaluated (unparseable,
// or either side is an unknown placeholder).
func evaluateConstraintExpr(expr string, componentProps, productFields map[string]string) (bool, bool) {
	expr = strings.TrimSpace(expr)
	var op string
	var lhsRaw, rhsRaw string
	for _, candidate := range constraintOperators {
		if idx := strings.Index(expr, candidate); idx >= 0 {
			op = candidate
			lhsRaw = strings.TrimSpace(expr[:idx])
			rhsRaw = strings.TrimSpace(expr[idx+len(candidate):])
			break
		}
	}
	if op == "" {
		return false, true
	}

	lhs, lhsIsVar := resolveVariable(lhsRaw, componentProps, productFields)
	if !lhsIsVar {
		lhs = lhsRaw
	}
	rhs, rhsIsVar := resolveVariable(rhsRaw, componentProps, productFields)
	if !rhsIsVar {
		rhs = rhsRaw
	}

	if model.IsUnknown(lhs) || model.IsUnknown(rhs) {
		return false, true
	}

	lhsNum, lhsNumOK := model.ParseNumber(lhs)
	rhsNum, rhsNumOK := model.ParseNumber(rhs)
	if lhsNumOK && rhsNumOK {
		return compareNumeric(lhsNum, rhsNum, op), false
	}
	return compareString(lhs, rhs, op), false
}

func compareNumeric(a, b float64, op string) bool {
	switch op {
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case ">":
		return a > b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	return false
}

func compareString(a, b, op string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch op {
	case "==":
		return a == b
	case "!=":
		return a != b
	case "<=":
		return a <= b
	case ">=":
		return a >= b
	case "<":
		return a < b
	case ">":
		return a > b
	}
	return false
}
