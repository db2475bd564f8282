package form

import "fmt"

// Section is one step of the intake form.
type Section struct {
	Key    string
	Title  string
	Step   int
	Fields []Field
	Pairs  []ConditionalPair
}

// Names returns every field name of the section in table order.
func (s *Section) Names() []string {
	names := make([]string, 0, len(s.Fields)+2*len(s.Pairs))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	for _, p := range s.Pairs {
		names = append(names, p.Confirmation, p.Details)
	}
	return names
}

// Has reports whether name belongs to the section.
func (s *Section) Has(name string) bool {
	ref, ok := fieldIndex[name]
	return ok && ref.section == s
}

const (
	StepCount    = 11
	TerminalStep = StepCount - 1
)

var (
	maritalOptions   = []string{"Solteiro(a)", "Casado(a)", "Divorciado(a)", "Viúvo(a)", "União estável"}
	sexOptions       = []string{"Masculino", "Feminino"}
	purposeOptions   = []string{"Turismo", "Negócios", "Estudo", "Trabalho", "Tratamento médico", "Outro"}
	payerOptions     = []string{"Próprio", "Familiar", "Empresa", "Outro"}
	educationOptions = []string{"Fundamental", "Médio", "Técnico", "Superior", "Pós-graduação", "Nenhum"}
)

var sections = []*Section{
	{
		Key: "personal", Title: "Dados pessoais", Step: 0,
		Fields: []Field{
			{Name: "firstName", Label: "Nome", Required: true},
			{Name: "lastName", Label: "Sobrenome", Required: true},
			{Name: "birthDate", Label: "Data de nascimento", Kind: KindDate, Required: true},
			{Name: "birthCity", Label: "Cidade de nascimento", Required: true},
			{Name: "birthCountry", Label: "País de nascimento", Required: true},
			{Name: "nationality", Label: "Nacionalidade", Required: true},
			{Name: "sex", Label: "Sexo", Kind: KindSelect, Options: sexOptions, Required: true},
			{Name: "maritalStatus", Label: "Estado civil", Kind: KindSelect, Options: maritalOptions, Required: true},
			{Name: "cpf", Label: "CPF", Required: true},
		},
		Pairs: []ConditionalPair{
			Pair("otherNames", "Já usou outros nomes?"),
			Pair("otherNationality", "Possui outra nacionalidade?"),
		},
	},
	{
		Key: "contact", Title: "Endereço e contato", Step: 1,
		Fields: []Field{
			{Name: "email", Label: "E-mail", Kind: KindEmail, Required: true},
			{Name: "phone", Label: "Telefone", Required: true},
			{Name: "address", Label: "Endereço", Required: true},
			{Name: "city", Label: "Cidade", Required: true},
			{Name: "state", Label: "Estado", Required: true},
			{Name: "postalCode", Label: "CEP", Required: true},
			{Name: "country", Label: "País", Required: true},
		},
		Pairs: []ConditionalPair{
			Pair("mailingAddress", "O endereço de correspondência é diferente?"),
			Pair("socialMedia", "Possui redes sociais?"),
		},
	},
	{
		Key: "passport", Title: "Passaporte", Step: 2,
		Fields: []Field{
			{Name: "passportNumber", Label: "Número do passaporte", Required: true},
			{Name: "passportIssueDate", Label: "Data de emissão", Kind: KindDate, Required: true},
			{Name: "passportExpiryDate", Label: "Data de validade", Kind: KindDate, Required: true},
			{Name: "passportIssuingCity", Label: "Cidade de emissão", Required: true},
			{Name: "passportIssuingCountry", Label: "País de emissão", Required: true},
		},
		Pairs: []ConditionalPair{
			Pair("lostPassport", "Já teve um passaporte perdido ou roubado?"),
		},
	},
	{
		Key: "trip", Title: "Viagem", Step: 3,
		Fields: []Field{
			{Name: "tripPurpose", Label: "Motivo da viagem", Kind: KindSelect, Options: purposeOptions, Required: true},
			{Name: "arrivalDate", Label: "Data prevista de chegada", Kind: KindDate, Required: true},
			{Name: "stayLength", Label: "Tempo de permanência", Required: true},
			{Name: "stayAddress", Label: "Endereço de hospedagem", Required: true},
			{Name: "tripPayer", Label: "Quem pagará a viagem", Kind: KindSelect, Options: payerOptions, Required: true},
			{Name: "tripPayerDetails", Label: "Dados do pagador", Kind: KindLongText},
		},
	},
	{
		Key: "companions", Title: "Acompanhantes", Step: 4,
		Pairs: []ConditionalPair{
			Pair("companions", "Viajará com outras pessoas?"),
			Pair("groupTravel", "Viajará como parte de um grupo ou organização?"),
		},
	},
	{
		Key: "previousTravel", Title: "Viagens anteriores", Step: 5,
		Pairs: []ConditionalPair{
			Pair("previousUSTravel", "Já esteve nos Estados Unidos?"),
			Pair("previousVisa", "Já teve um visto americano emitido?"),
			Pair("visaDenied", "Já teve um visto negado ou entrada recusada?"),
			Pair("immigrationPetition", "Alguém já fez uma petição de imigração em seu nome?"),
		},
	},
	{
		Key: "usContact", Title: "Contato nos Estados Unidos", Step: 6,
		Fields: []Field{
			{Name: "usContactName", Label: "Nome do contato", Required: true},
			{Name: "usContactRelationship", Label: "Relação com o contato", Required: true},
			{Name: "usContactPhone", Label: "Telefone do contato"},
			{Name: "usContactEmail", Label: "E-mail do contato", Kind: KindEmail},
			{Name: "usContactAddress", Label: "Endereço do contato", Required: true},
		},
	},
	{
		Key: "family", Title: "Família", Step: 7,
		Fields: []Field{
			{Name: "fatherName", Label: "Nome do pai"},
			{Name: "fatherBirthDate", Label: "Data de nascimento do pai", Kind: KindDate},
			{Name: "motherName", Label: "Nome da mãe", Required: true},
			{Name: "motherBirthDate", Label: "Data de nascimento da mãe", Kind: KindDate},
			{Name: "spouseName", Label: "Nome do cônjuge"},
		},
		Pairs: []ConditionalPair{
			Pair("fatherInUS", "Seu pai está nos Estados Unidos?"),
			Pair("motherInUS", "Sua mãe está nos Estados Unidos?"),
			Pair("relativesInUS", "Possui outros parentes nos Estados Unidos?"),
		},
	},
	{
		Key: "work", Title: "Trabalho", Step: 8,
		Fields: []Field{
			{Name: "occupation", Label: "Ocupação", Required: true},
			{Name: "employerName", Label: "Empregador"},
			{Name: "employerAddress", Label: "Endereço do empregador"},
			{Name: "employerPhone", Label: "Telefone do empregador"},
			{Name: "monthlyIncome", Label: "Renda mensal"},
			{Name: "jobDescription", Label: "Descrição das atividades", Kind: KindLongText},
		},
		Pairs: []ConditionalPair{
			Pair("previousJob", "Teve outros empregos nos últimos cinco anos?"),
		},
	},
	{
		Key: "education", Title: "Educação e histórico", Step: 9,
		Fields: []Field{
			{Name: "educationLevel", Label: "Escolaridade", Kind: KindSelect, Options: educationOptions, Required: true},
			{Name: "institutionName", Label: "Instituição de ensino"},
			{Name: "languages", Label: "Idiomas falados", Required: true},
		},
		Pairs: []ConditionalPair{
			Pair("countriesVisited", "Visitou outros países nos últimos cinco anos?"),
			Pair("organizationMembership", "Pertence a alguma organização profissional, social ou beneficente?"),
			Pair("specializedSkills", "Possui habilidades em armas de fogo, explosivos ou materiais nucleares?"),
			Pair("militaryService", "Já prestou serviço militar?"),
			Pair("paramilitary", "Já participou de grupo paramilitar, rebelde ou guerrilheiro?"),
		},
	},
	{
		Key: "security", Title: "Segurança", Step: TerminalStep,
		Pairs: []ConditionalPair{
			Pair("contagiousDisease", "Possui alguma doença transmissível de importância para a saúde pública?"),
			Pair("mentalDisorder", "Possui transtorno mental ou físico que represente ameaça à segurança de outros?"),
			Pair("drugAbuse", "É ou já foi usuário ou dependente de drogas?"),
			Pair("crime", "Já foi preso ou condenado por algum crime?"),
			Pair("controlledSubstance", "Já violou alguma lei sobre substâncias controladas?"),
			Pair("prostitution", "Pretende se envolver em prostituição ou exploração sexual?"),
			Pair("moneyLaundering", "Já se envolveu ou pretende se envolver em lavagem de dinheiro?"),
			Pair("humanTrafficking", "Já cometeu ou conspirou para cometer tráfico de pessoas?"),
			Pair("traffickingAid", "Já ajudou ou apoiou alguém no tráfico de pessoas?"),
			Pair("traffickingBenefit", "É cônjuge ou filho de traficante e se beneficiou da atividade?"),
			Pair("espionage", "Pretende praticar espionagem, sabotagem ou exportação ilegal?"),
			Pair("terrorism", "Pretende se envolver em atividades terroristas?"),
			Pair("terrorismSupport", "Já forneceu apoio financeiro a terroristas?"),
			Pair("terroristOrganization", "É membro de organização terrorista?"),
			Pair("terroristRelative", "É cônjuge ou filho de alguém envolvido em terrorismo?"),
			Pair("genocide", "Já participou de genocídio?"),
			Pair("torture", "Já cometeu tortura?"),
			Pair("extrajudicialKilling", "Já participou de execuções extrajudiciais ou violência política?"),
			Pair("childSoldier", "Já recrutou ou usou crianças-soldado?"),
			Pair("religiousFreedom", "Já violou a liberdade religiosa como funcionário público?"),
			Pair("forcedAbortion", "Já impôs controle populacional forçado?"),
			Pair("organTransplant", "Já participou de transplante coercitivo de órgãos?"),
			Pair("visaFraud", "Já tentou obter visto ou entrada por fraude?"),
			Pair("deportation", "Já foi deportado ou removido de algum país?"),
			Pair("childCustody", "Já reteve a custódia de criança cidadã americana fora dos EUA?"),
			Pair("illegalVoting", "Já votou ilegalmente nos Estados Unidos?"),
			Pair("taxRenunciation", "Renunciou à cidadania americana para evitar impostos?"),
		},
	},
}

type fieldRef struct {
	section *Section
	// position orders errors within the document.
	position int
}

var (
	sectionByKey = make(map[string]*Section, len(sections))
	fieldIndex   = make(map[string]fieldRef)
)

func init() {
	pos := 0
	for i, s := range sections {
		if s.Step != i {
			panic(fmt.Sprintf("form: section %q declared at step %d, want %d", s.Key, s.Step, i))
		}
		sectionByKey[s.Key] = s
		for _, name := range s.Names() {
			if _, dup := fieldIndex[name]; dup {
				panic(fmt.Sprintf("form: field %q declared twice", name))
			}
			fieldIndex[name] = fieldRef{section: s, position: pos}
			pos++
		}
	}
}

// Sections returns the form sections ordered by step.
func Sections() []*Section {
	return append([]*Section(nil), sections...)
}

// SectionByKey looks a section up by key.
func SectionByKey(key string) (*Section, bool) {
	s, ok := sectionByKey[key]
	return s, ok
}

// SectionAt returns the section shown at step.
func SectionAt(step int) (*Section, bool) {
	if step < 0 || step >= len(sections) {
		return nil, false
	}
	return sections[step], true
}

// StepOf returns the step of the section that owns the field path.
func StepOf(path string) (int, bool) {
	ref, ok := fieldIndex[path]
	if !ok {
		return 0, false
	}
	return ref.section.Step, true
}
