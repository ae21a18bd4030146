package demoapp

import (
	"math/big"
	"time"
)

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

type User struct {
	Name    string              `json:"name"`
	Email   string              `json:"email"`
	Age     int                 `json:"age"`
	Address *Address            `json:"address"`
	Roles   map[string]struct{} `json:"roles"`
	Joined  time.Time           `json:"joined"`
	Manager *User               `json:"manager"`
}

type Todo struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// AppComponent is the root component.
type AppComponent struct {
	Title    string               `json:"title"`
	User     *User                `json:"user"`
	Renders  int                  `json:"renders"`
	Balance  *big.Int             `json:"balance"`
	Settings map[string]any       `json:"settings"`
	OnSelect func(index int) bool `json:"onSelect"`
	app      *App
}

type TodoListComponent struct {
	Todos  []*Todo `json:"todos"`
	Filter string  `json:"filter"`
}

type TodoComponent struct {
	Todo    *Todo `json:"todo"`
	Editing bool  `json:"editing"`
}

type NgIf struct {
	Condition bool `json:"ngIf"`
}

type TooltipDirective struct {
	Text     string `json:"text"`
	Position string `json:"position"`
}

func newUser() *User {
	u := &User{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
		Age:   36,
		Address: &Address{
			Street: "12 St James's Square",
			City:   "London",
			Zip:    "SW1Y 4JH",
		},
		Roles:  map[string]struct{}{"admin": {}, "editor": {}},
		Joined: time.Date(1843, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
	// A manager chain that loops back exercises cycle markers.
	u.Manager = &User{Name: "Charles Babbage", Manager: u}
	return u
}
