package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/veridock/text2api/internal/spec"
)

// Keyword data keyed by language code. Everything here is built once at
// package init and never modified.

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// profiles drive language detection. Order breaks score ties.
var profiles = []languageProfile{
	{
		code: "en",
		stopWords: set("the", "and", "for", "with", "that", "will", "can", "to", "of", "a", "an", "is", "are",
			"each", "has", "have", "in", "on", "by", "be", "should", "which", "where", "it", "their", "or"),
		suffixes:   []string{"ing", "tion", "ed", "ly", "ness"},
		diacritics: "",
	},
	{
		code: "pl",
		stopWords: set("i", "w", "z", "ze", "na", "do", "dla", "się", "że", "które", "który", "która", "jest", "są",
			"oraz", "może", "można", "będzie", "ma", "mają", "każdy", "każda", "tylko", "po", "od", "przez", "jak", "aby"),
		suffixes:   []string{"ów", "ach", "ami", "ość", "ych", "ego", "ują", "anie", "enie"},
		diacritics: "ąćęłńóśźż",
	},
	{
		code: "de",
		stopWords: set("der", "die", "das", "und", "für", "mit", "dass", "wird", "kann", "ist", "sind", "ein", "eine",
			"einen", "zu", "von", "auf", "im", "den", "dem", "hat", "haben", "jeder", "jede", "nur", "soll", "sollen"),
		suffixes:   []string{"ung", "lich", "keit", "heit", "isch"},
		diacritics: "äöüß",
	},
	{
		code: "fr",
		stopWords: set("le", "la", "les", "et", "pour", "avec", "que", "qui", "sera", "peut", "est", "sont", "un",
			"une", "des", "du", "de", "dans", "chaque", "avoir", "doit"),
		suffixes:   []string{"ment", "eur", "ique", "aux", "eux"},
		diacritics: "àâçèêëîïôûùÿœ",
	},
	{
		code: "es",
		stopWords: set("el", "la", "los", "las", "y", "para", "con", "que", "será", "puede", "es", "son", "un", "una",
			"de", "del", "en", "cada", "tiene", "tienen", "por"),
		suffixes:   []string{"ción", "mente", "dad", "ado", "ida"},
		diacritics: "áíñú¡¿",
	},
}

// keywords matches whole words or phrases in folded lower-case text
type keywords struct {
	re *regexp.Regexp
}

func kw(words ...string) keywords {
	if len(words) == 0 {
		return keywords{}
	}
	sorted := append([]string(nil), words...)
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, w := range sorted {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return keywords{re: regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)}
}

func (k keywords) match(s string) bool {
	return k.re != nil && k.re.MatchString(s)
}

func (k keywords) count(s string) int {
	if k.re == nil {
		return 0
	}
	return len(k.re.FindAllStringIndex(s, -1))
}

// lexeme maps a word stem onto a canonical entity name
type lexeme struct {
	stem   string
	entity string
}

type protocolKeywords struct {
	protocol spec.Protocol
	words    keywords
}

type authKeywords struct {
	scheme spec.AuthScheme
	words  keywords
}

type databaseKeywords struct {
	kind  spec.DatabaseKind
	words keywords
}

type domainKeywords struct {
	domain string
	words  keywords
}

type typeHint struct {
	fieldType spec.FieldType
	words     map[string]bool
}

// extractionTable is the heuristic extraction data for one language. All
// words are folded (no diacritics) and lower case.
type extractionTable struct {
	code string

	create, read, update, remove keywords
	readOnly                     keywords

	// entity lexicon; a token matches a stem when it starts with it and has
	// at most maxSuffix extra letters
	lexicon   []lexeme
	maxSuffix int

	// words following an unknown entity name, e.g. "recipe api"
	subjectMarkers map[string]bool
	genericWords   map[string]bool

	fieldIntro   map[string]bool
	fieldNouns   map[string]bool
	conjunctions map[string]bool
	articles     map[string]bool

	many, one, belongsTo, has map[string]bool
	// pluralHas treats "<A> has <plural B>" as one-to-many
	pluralHas bool

	protocols []protocolKeywords
	auth      []authKeywords
	database  []databaseKeywords
	domains   []domainKeywords

	typeHints   []typeHint
	uniqueHints map[string]bool
}

var sharedProtocols = []protocolKeywords{
	{spec.ProtocolGraphQL, kw("graphql")},
	{spec.ProtocolRPC, kw("grpc", "protobuf", "protocol buffers", "rpc", "connectrpc")},
	{spec.ProtocolSocket, kw("websocket", "websockets", "web socket", "socket", "real-time", "realtime", "real time")},
	{spec.ProtocolCommandLine, kw("cli", "command line", "command-line", "terminal", "shell")},
	{spec.ProtocolREST, kw("rest", "restful", "http", "json api")},
}

var extractionTables = map[string]*extractionTable{
	"en": {
		code:     "en",
		create:   kw("create", "add", "insert", "new", "register"),
		read:     kw("read", "get", "fetch", "retrieve", "list", "show", "view", "browse", "search"),
		update:   kw("update", "edit", "modify", "change"),
		remove:   kw("delete", "remove", "destroy", "archive"),
		readOnly: kw("read-only", "read only", "readonly", "only list", "only view"),
		lexicon: []lexeme{
			{"user", "User"}, {"product", "Product"}, {"order", "Order"}, {"customer", "Customer"},
			{"item", "Item"}, {"post", "Post"}, {"article", "Article"}, {"comment", "Comment"},
			{"category", "Category"}, {"categories", "Category"}, {"note", "Note"}, {"task", "Task"},
			{"todo", "Todo"}, {"project", "Project"}, {"book", "Book"}, {"author", "Author"},
			{"tag", "Tag"}, {"invoice", "Invoice"}, {"payment", "Payment"}, {"review", "Review"},
			{"message", "Message"}, {"event", "Event"}, {"page", "Page"}, {"team", "Team"},
			{"employee", "Employee"}, {"account", "Account"}, {"ticket", "Ticket"}, {"contact", "Contact"},
			{"company", "Company"}, {"companies", "Company"}, {"room", "Room"}, {"booking", "Booking"},
			{"cart", "Cart"}, {"recipe", "Recipe"}, {"ingredient", "Ingredient"}, {"student", "Student"},
			{"course", "Course"}, {"movie", "Movie"}, {"song", "Song"}, {"playlist", "Playlist"},
			{"library", "Library"}, {"libraries", "Library"}, {"channel", "Channel"}, {"device", "Device"},
		},
		maxSuffix:      1,
		subjectMarkers: set("api", "apis", "service", "management", "manager", "tracker", "catalog", "catalogue"),
		genericWords: set("simple", "basic", "rest", "restful", "graphql", "grpc", "rpc", "web", "websocket",
			"small", "new", "my", "our", "public", "private", "json", "http", "cli", "crud", "a", "an", "the",
			"online", "minimal", "tiny", "full", "complete", "backend", "secure", "modern", "data"),
		fieldIntro:   set("with", "having", "containing", "including", "has", "have"),
		fieldNouns:   set("field", "fields", "attribute", "attributes", "property", "properties", "column", "columns"),
		conjunctions: set("and", "or", "plus"),
		articles:     set("a", "an", "the", "its", "their", "optional", "required", "unique"),
		many:         set("many", "multiple", "several", "numerous", "lots"),
		one:          set("one", "single", "exactly"),
		belongsTo:    set("belongs", "belong", "owned"),
		has:          set("has", "have", "own", "owns", "contain", "contains", "write", "writes", "hold", "holds"),
		pluralHas:    true,
		protocols:    sharedProtocols,
		auth: []authKeywords{
			{spec.AuthOAuth, kw("oauth", "oauth2", "sso", "google login", "social login")},
			{spec.AuthBasic, kw("basic auth", "basic authentication", "http basic")},
			{spec.AuthJWT, kw("jwt", "bearer", "token", "tokens", "auth", "authentication", "authorization",
				"login", "log in", "sign in", "register", "registration", "session", "sessions")},
		},
		database: []databaseKeywords{
			{spec.DatabaseDocument, kw("mongodb", "mongo", "nosql", "document store", "document database", "firestore")},
			{spec.DatabaseCache, kw("redis", "memcached", "cache", "cached", "caching", "in-memory")},
			{spec.DatabaseSQL, kw("sql", "postgres", "postgresql", "mysql", "sqlite", "mariadb", "relational",
				"database", "db", "persist", "persistent", "stored")},
		},
		domains: []domainKeywords{
			{"ecommerce", kw("e-commerce", "ecommerce", "shop", "online store", "webshop", "checkout", "shopping cart")},
			{"blog", kw("blog", "blogging", "blogs")},
			{"cms", kw("cms", "content management", "content management system")},
		},
		typeHints: []typeHint{
			{spec.TypeFloat, set("price", "cost", "amount", "total", "balance", "rating", "salary", "weight", "score", "rate")},
			{spec.TypeInteger, set("count", "quantity", "qty", "age", "stock", "number", "year", "position", "priority", "views", "likes", "pages")},
			{spec.TypeBoolean, set("active", "done", "completed", "published", "enabled", "visible", "archived", "verified", "paid", "available")},
			{spec.TypeDatetime, set("date", "time", "created", "updated", "deadline", "birthday", "timestamp", "due")},
		},
		uniqueHints: set("email", "username", "slug", "sku", "isbn", "login", "handle"),
	},
	"pl": {
		code:     "pl",
		create:   kw("utworz", "tworzenie", "dodaj", "dodawanie", "dodawac", "nowy", "nowa", "rejestracja"),
		read:     kw("pobierz", "pobieranie", "lista", "listowanie", "wyswietl", "wyswietlanie", "przegladanie", "wyszukiwanie"),
		update:   kw("aktualizuj", "aktualizacja", "edytuj", "edycja", "edytowac", "zmien", "modyfikacja"),
		remove:   kw("usun", "usuwanie", "usuwac", "kasowanie"),
		readOnly: kw("tylko do odczytu", "tylko odczyt", "tylko przegladanie"),
		lexicon: []lexeme{
			{"uzytkownik", "User"}, {"uzytkownicy", "User"}, {"produkt", "Product"}, {"zamowien", "Order"},
			{"klient", "Customer"}, {"klienci", "Customer"}, {"post", "Post"}, {"wpis", "Post"},
			{"artykul", "Article"}, {"komentarz", "Comment"}, {"kategori", "Category"}, {"notat", "Note"},
			{"zadani", "Task"}, {"zadan", "Task"}, {"projekt", "Project"}, {"ksiazk", "Book"}, {"ksiazek", "Book"},
			{"autor", "Author"}, {"tag", "Tag"}, {"faktur", "Invoice"}, {"platnos", "Payment"}, {"recenzj", "Review"},
			{"wiadomos", "Message"}, {"wydarzen", "Event"}, {"pracowni", "Employee"}, {"konto", "Account"},
			{"kont", "Account"}, {"zgloszen", "Ticket"}, {"kontakt", "Contact"}, {"firm", "Company"},
			{"pokoj", "Room"}, {"pokoi", "Room"}, {"rezerwacj", "Booking"}, {"koszyk", "Cart"}, {"przepis", "Recipe"},
			{"student", "Student"}, {"kurs", "Course"}, {"film", "Movie"},
		},
		maxSuffix:      4,
		subjectMarkers: set(),
		genericWords:   set(),
		fieldIntro:     set("z", "ze", "zawierajacy", "zawierajaca", "zawierajace", "posiadajacy", "posiadajaca", "majacy", "majaca", "ma", "maja"),
		fieldNouns:     set("polem", "polami", "pola", "pole", "atrybutami", "atrybuty", "wlasciwosciami"),
		conjunctions:   set("i", "oraz", "lub", "albo"),
		articles:       set("opcjonalnym", "opcjonalne", "wymagane", "wymaganym", "unikalnym", "unikalne"),
		many:           set("wiele", "wielu", "kilka", "kilku", "liczne", "wieloma", "wieloma"),
		one:            set("jeden", "jedna", "jedno", "jednym", "jedna", "pojedynczy", "dokladnie"),
		belongsTo:      set("nalezy", "naleza", "przypisany", "przypisana"),
		has:            set("ma", "maja", "posiada", "posiadaja", "zawiera", "zawieraja", "pisze", "pisza"),
		protocols: append([]protocolKeywords{
			{spec.ProtocolCommandLine, kw("wiersza polecen", "linii komend", "narzedzie konsolowe")},
			{spec.ProtocolSocket, kw("czasie rzeczywistym")},
		}, sharedProtocols...),
		auth: []authKeywords{
			{spec.AuthOAuth, kw("oauth", "oauth2", "sso", "logowanie przez google")},
			{spec.AuthBasic, kw("basic auth", "http basic")},
			{spec.AuthJWT, kw("jwt", "token", "tokeny", "logowanie", "logowaniem", "uwierzytelnianie", "uwierzytelnianiem",
				"autoryzacja", "autoryzacja", "rejestracja", "sesja", "auth")},
		},
		database: []databaseKeywords{
			{spec.DatabaseDocument, kw("mongodb", "mongo", "nosql")},
			{spec.DatabaseCache, kw("redis", "cache", "pamieci podrecznej")},
			{spec.DatabaseSQL, kw("sql", "postgres", "postgresql", "mysql", "sqlite", "baza danych", "bazie danych",
				"bazy danych", "baza", "bazie", "relacyjn")},
		},
		domains: []domainKeywords{
			{"ecommerce", kw("sklep", "sklepu", "sklepem", "e-commerce", "ecommerce", "koszyk", "zakupy")},
			{"blog", kw("blog", "bloga", "blogiem", "blogowy")},
			{"cms", kw("cms", "zarzadzania trescia", "system zarzadzania trescia")},
		},
		typeHints: []typeHint{
			{spec.TypeFloat, set("cena", "koszt", "kwota", "suma", "saldo", "ocena", "wynagrodzenie", "waga")},
			{spec.TypeInteger, set("ilosc", "liczba", "wiek", "stan", "rok", "pozycja", "priorytet", "numer")},
			{spec.TypeBoolean, set("aktywny", "aktywna", "zakonczone", "zakonczony", "opublikowany", "opublikowana", "wykonane", "widoczny", "oplacone")},
			{spec.TypeDatetime, set("data", "czas", "termin", "utworzono", "zaktualizowano", "urodziny")},
		},
		uniqueHints: set("email", "login", "slug", "sku", "isbn", "pesel", "nip"),
	},
	"de": {
		code:     "de",
		create:   kw("erstellen", "anlegen", "hinzufugen", "neu", "neue", "registrieren"),
		read:     kw("lesen", "abrufen", "anzeigen", "auflisten", "liste", "suchen"),
		update:   kw("aktualisieren", "bearbeiten", "andern"),
		remove:   kw("loschen", "entfernen"),
		readOnly: kw("nur lesen", "schreibgeschutzt", "nur lesend", "read-only"),
		lexicon: []lexeme{
			{"benutzer", "User"}, {"nutzer", "User"}, {"produkt", "Product"}, {"bestellung", "Order"},
			{"kunde", "Customer"}, {"kunden", "Customer"}, {"beitrag", "Post"}, {"beitrage", "Post"},
			{"artikel", "Article"}, {"kommentar", "Comment"}, {"kategorie", "Category"}, {"notiz", "Note"},
			{"aufgabe", "Task"}, {"projekt", "Project"}, {"buch", "Book"}, {"bucher", "Book"}, {"autor", "Author"},
			{"rechnung", "Invoice"}, {"zahlung", "Payment"}, {"bewertung", "Review"},
			{"nachricht", "Message"}, {"veranstaltung", "Event"}, {"mitarbeiter", "Employee"}, {"konto", "Account"},
			{"konten", "Account"}, {"ticket", "Ticket"}, {"kontakt", "Contact"}, {"firma", "Company"},
			{"firmen", "Company"}, {"raum", "Room"}, {"raume", "Room"}, {"buchung", "Booking"}, {"warenkorb", "Cart"},
			{"rezept", "Recipe"}, {"kurs", "Course"}, {"film", "Movie"},
		},
		maxSuffix:      3,
		subjectMarkers: set(),
		genericWords:   set(),
		fieldIntro:     set("mit", "enthalt", "enthalten", "hat", "haben"),
		fieldNouns:     set("feld", "feldern", "felder", "attribut", "attributen", "eigenschaften"),
		conjunctions:   set("und", "oder", "sowie"),
		articles:       set("einem", "einer", "einen", "dem", "der", "den", "optionalem", "optionaler", "eindeutigem"),
		many:           set("viele", "vielen", "mehrere", "mehreren", "zahlreiche"),
		one:            set("ein", "eine", "einen", "einem", "einer", "genau", "einzelne"),
		belongsTo:      set("gehort", "gehoren", "zugeordnet"),
		has:            set("hat", "haben", "besitzt", "besitzen", "enthalt", "enthalten", "schreibt", "schreiben"),
		protocols: append([]protocolKeywords{
			{spec.ProtocolCommandLine, kw("kommandozeile", "befehlszeile", "konsole")},
			{spec.ProtocolSocket, kw("echtzeit")},
		}, sharedProtocols...),
		auth: []authKeywords{
			{spec.AuthOAuth, kw("oauth", "oauth2", "sso")},
			{spec.AuthBasic, kw("basic auth", "http basic")},
			{spec.AuthJWT, kw("jwt", "token", "anmeldung", "authentifizierung", "login", "registrierung", "sitzung", "auth")},
		},
		database: []databaseKeywords{
			{spec.DatabaseDocument, kw("mongodb", "mongo", "nosql")},
			{spec.DatabaseCache, kw("redis", "cache", "zwischenspeicher")},
			{spec.DatabaseSQL, kw("sql", "postgres", "postgresql", "mysql", "sqlite", "datenbank", "relational")},
		},
		domains: []domainKeywords{
			{"ecommerce", kw("shop", "onlineshop", "webshop", "e-commerce", "ecommerce", "warenkorb")},
			{"blog", kw("blog", "blogs")},
			{"cms", kw("cms", "inhaltsverwaltung", "content management")},
		},
		typeHints: []typeHint{
			{spec.TypeFloat, set("preis", "kosten", "betrag", "summe", "saldo", "bewertung", "gehalt", "gewicht")},
			{spec.TypeInteger, set("anzahl", "menge", "alter", "bestand", "jahr", "position", "prioritat", "nummer")},
			{spec.TypeBoolean, set("aktiv", "erledigt", "veroffentlicht", "sichtbar", "bezahlt", "verfugbar")},
			{spec.TypeDatetime, set("datum", "zeit", "erstellt", "aktualisiert", "frist", "geburtstag")},
		},
		uniqueHints: set("email", "benutzername", "slug", "sku", "isbn"),
	},
}

// domainSeeds are the default entities suggested by a domain vocabulary
var domainSeeds = map[string][]spec.Entity{
	"ecommerce": {
		{
			Name: "Product",
			Fields: []spec.Field{
				{Name: "name", Type: spec.TypeString, Required: true},
				{Name: "price", Type: spec.TypeFloat, Required: true},
				{Name: "stock", Type: spec.TypeInteger},
			},
		},
		{
			Name: "Customer",
			Fields: []spec.Field{
				{Name: "email", Type: spec.TypeString, Required: true, Unique: true},
				{Name: "name", Type: spec.TypeString, Required: true},
			},
			Relations: []spec.Relation{{FromEntity: "Customer", ToEntity: "Order", Kind: spec.OneToMany}},
		},
		{
			Name: "Order",
			Fields: []spec.Field{
				{Name: "total", Type: spec.TypeFloat, Required: true},
				{Name: "status", Type: spec.TypeString, Required: true},
				{Name: "created_at", Type: spec.TypeDatetime},
			},
		},
	},
	"blog": {
		{
			Name: "Post",
			Fields: []spec.Field{
				{Name: "title", Type: spec.TypeString, Required: true},
				{Name: "content", Type: spec.TypeString, Required: true},
				{Name: "published", Type: spec.TypeBoolean},
				{Name: "created_at", Type: spec.TypeDatetime},
			},
			Relations: []spec.Relation{{FromEntity: "Post", ToEntity: "Comment", Kind: spec.OneToMany}},
		},
		{
			Name: "Comment",
			Fields: []spec.Field{
				{Name: "body", Type: spec.TypeString, Required: true},
				{Name: "author", Type: spec.TypeString},
			},
		},
	},
	"cms": {
		{
			Name: "Page",
			Fields: []spec.Field{
				{Name: "title", Type: spec.TypeString, Required: true},
				{Name: "slug", Type: spec.TypeString, Required: true, Unique: true},
				{Name: "body", Type: spec.TypeString},
				{Name: "published", Type: spec.TypeBoolean},
			},
		},
		{
			Name: "Media",
			Fields: []spec.Field{
				{Name: "url", Type: spec.TypeString, Required: true},
				{Name: "mime_type", Type: spec.TypeString},
			},
		},
	},
}

// tableFor returns the extraction table for a language, or nil
func tableFor(code string) *extractionTable {
	return extractionTables[code]
}
