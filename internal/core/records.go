package core

// Field maps keyed by JSON name. The stores and the validation layer move
// entities through these so that the column set lives in schema.go only.

func (u User) Fields() map[string]string {
	return map[string]string{
		"name":     u.Name,
		"email":    u.Email,
		"currency": u.Currency,
		"language": u.Language,
	}
}

func UserFromFields(f map[string]string) User {
	return User{
		Name:     f["name"],
		Email:    f["email"],
		Currency: f["currency"],
		Language: f["language"],
	}
}

func (t Transaction) Fields() map[string]string {
	return map[string]string{
		"amount":   t.Amount,
		"label":    t.Label,
		"category": t.Category,
		"type":     string(t.Type),
		"date":     t.Date,
	}
}

func TransactionFromFields(f map[string]string) Transaction {
	return Transaction{
		Amount:   f["amount"],
		Label:    f["label"],
		Category: f["category"],
		Type:     TransactionType(f["type"]),
		Date:     f["date"],
	}
}

func (g Goal) Fields() map[string]string {
	return map[string]string{
		"name":    g.Name,
		"target":  g.Target,
		"current": g.Current,
		"color":   g.Color,
	}
}

func GoalFromFields(f map[string]string) Goal {
	return Goal{
		Name:    f["name"],
		Target:  f["target"],
		Current: f["current"],
		Color:   f["color"],
	}
}

func (m AiMessage) Fields() map[string]string {
	return map[string]string{
		"role":    string(m.Role),
		"content": m.Content,
	}
}

func AiMessageFromFields(f map[string]string) AiMessage {
	return AiMessage{
		Role:    Role(f["role"]),
		Content: f["content"],
	}
}

// Values returns the field values in entity column order.
func (e Entity) Values(fields map[string]string) []any {
	out := make([]any, len(e.Fields))
	for i, f := range e.Fields {
		out[i] = fields[f.JSON]
	}
	return out
}

// Scan collects column values read in entity field order back into a field map.
func (e Entity) Scan(values []string) map[string]string {
	out := make(map[string]string, len(e.Fields))
	for i, f := range e.Fields {
		if i < len(values) {
			out[f.JSON] = values[i]
		}
	}
	return out
}

// UpdatableValues returns the values of the updatable fields in column order.
func (e Entity) UpdatableValues(fields map[string]string) []any {
	var out []any
	for _, f := range e.Fields {
		if f.Updatable {
			out = append(out, fields[f.JSON])
		}
	}
	return out
}
