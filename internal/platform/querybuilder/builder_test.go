package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "public_id").
		From("contests").
		Where(Eq("season", 2026), IsNull("deleted_at")).
		OrderBy("week", "kickoff_at").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, public_id FROM contests WHERE season = $1 AND deleted_at IS NULL ORDER BY week, kickoff_at LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != 2026 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("picks").
		Columns("public_id", "user_id").
		Values("pk-1", "user-1").
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO picks (public_id, user_id) VALUES ($1, $2) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "pk-1" || args[1] != "user-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("picks").
		Set("result", "WIN").
		SetExpr("updated_at", "NOW()").
		Where(Eq("public_id", "pk-1")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE picks SET result = $1, updated_at = NOW() WHERE public_id = $2"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "WIN" || args[1] != "pk-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel(t *testing.T) {
	model := struct {
		PublicID string `db:"public_id"`
		Season   int    `db:"season"`
		Internal string `db:"-"`
	}{PublicID: "ct-1", Season: 2026, Internal: "skip"}

	query, args, err := InsertModel("contests", model, "")
	if err != nil {
		t.Fatalf("build insert from model: %v", err)
	}

	wantQuery := "INSERT INTO contests (public_id, season) VALUES ($1, $2)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "ct-1" || args[1] != 2026 {
		t.Fatalf("unexpected args: %+v", args)
	}
}
