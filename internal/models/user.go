package models

type User struct {
	Email    string `bson:"email" json:"email"`
	Password string `bson:"password" json:"-"`
	Base     `bson:",inline"`
}

func NewUser(email, password string) *User {
	return &User{
		Email:    email,
		Password: password,
		Base:     NewBase(),
	}
}
