package domain

type User struct {
	ID        string `db:"id" json:"id"`
	Username  string `db:"username" json:"username"`
	Email     string `db:"email" json:"email"`
	Hash      string `db:"password_hash" json:"-"`
	CreatedAt string `db:"created_at" json:"created_at"`
}
