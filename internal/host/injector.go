package host

// StaticInjector is a concrete Injector.
type StaticInjector struct {
	InjectorID   string
	InjectorName string
	InjectorKind string
	ParentInj    Injector
	Records      []ProviderRecord
	OwnerElement Element
}

func (i *StaticInjector) ID() string   { return i.InjectorID }
func (i *StaticInjector) Name() string { return i.InjectorName }

func (i *StaticInjector) Kind() string {
	if i.InjectorKind == "" {
		return "environment"
	}
	return i.InjectorKind
}

func (i *StaticInjector) Parent() Injector { return i.ParentInj }

func (i *StaticInjector) Providers() []ProviderRecord { return i.Records }
func (i *StaticInjector) Owner() Element              { return i.OwnerElement }
