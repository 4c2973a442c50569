package utils

// nicknameGroups lists given names with their common Filipino and English short forms.
var nicknameGroups = [][]string{
	{"robert", "roberto", "bob", "bobby", "rob", "robbie", "bert", "berto", "obet"},
	{"william", "bill", "billy", "will", "willy", "willie"},
	{"guillermo", "memo", "willie"},
	{"jose", "pepe", "joey", "jojo", "pepito"},
	{"joseph", "joe", "joey", "jojo"},
	{"josefina", "fina", "pina", "josie"},
	{"francisco", "kiko", "paco", "frank", "francis", "isko"},
	{"maria", "mary", "mia", "maja"},
	{"elizabeth", "liz", "lisa", "beth", "betty", "eli"},
	{"margaret", "maggie", "meg", "peggy"},
	{"michael", "mike", "mikey", "mick", "miguel", "migs"},
	{"christopher", "chris", "topher"},
	{"cristina", "christina", "tina", "cris", "tintin"},
	{"john", "jonathan", "jon", "johnny", "jack"},
	{"juan", "johnny", "jun", "juanito"},
	{"ricardo", "ricky", "carding", "cardo"},
	{"richard", "rick", "ricky", "richie", "dick"},
	{"eduardo", "eddie", "edong", "ed"},
	{"edward", "eddie", "ed", "ted"},
	{"antonio", "anthony", "tony", "tonyo", "anton"},
	{"ernesto", "ernie", "erning"},
	{"rodrigo", "rody", "digong"},
	{"ferdinand", "ferdie", "andy", "bongbong"},
	{"manuel", "manny", "maning", "noel"},
	{"gregorio", "greg", "gorio"},
	{"alfredo", "alfred", "fred", "freddie", "pido"},
	{"teresa", "theresa", "tess", "tessie"},
	{"rosario", "charo", "rose", "rosie"},
	{"concepcion", "connie", "concha"},
	{"dolores", "lola", "lolita", "dolly"},
	{"jesus", "jesse", "jess", "chuy", "jessie"},
	{"andres", "andrew", "andy", "andoy", "drew"},
	{"katherine", "catherine", "kate", "kathy", "katie", "cathy"},
	{"patricia", "pat", "patty", "tricia"},
	{"victoria", "vicky", "tori"},
	{"isabel", "isabelle", "bel", "belle", "isay"},
	{"rebecca", "becky", "becca"},
	{"benjamin", "ben", "benjie", "benji"},
	{"nicholas", "nicolas", "nick", "nico"},
	{"alexander", "alejandro", "alex", "xander", "sandy"},
	{"daniel", "dan", "danny"},
	{"samuel", "sam", "sammy"},
	{"thomas", "tomas", "tom", "tommy"},
	{"james", "jaime", "jim", "jimmy", "jamie"},
	{"joshua", "josh"},
	{"matthew", "mateo", "matt"},
	{"vincent", "vicente", "vince", "vinny", "enteng"},
	{"carlos", "carlo", "caloy"},
	{"leonardo", "leo", "nardo"},
	{"eugenio", "eugene", "geno"},
}

var nicknameIndex = buildNicknameIndex(nicknameGroups)

func buildNicknameIndex(groups [][]string) map[string][]int {
	index := make(map[string][]int)
	for gi, group := range groups {
		for _, name := range group {
			index[name] = append(index[name], gi)
		}
	}
	return index
}

// AreNicknames reports whether a and b (normalized single names) belong to
// the same nickname group.
func AreNicknames(a, b string) bool {
	ga, ok := nicknameIndex[a]
	if !ok {
		return false
	}
	gb, ok := nicknameIndex[b]
	if !ok {
		return false
	}
	for _, x := range ga {
		for _, y := range gb {
			if x == y {
				return true
			}
		}
	}
	return false
}
