package game

// bindingRegistry keeps the exclusive device-to-team association that lets a
// captain's browser reconnect to the same team. The two maps are a mirrored
// pair and are only ever updated together, so the bijection can never be
// observed broken: at most one team per device, at most one device per team.
type bindingRegistry struct {
	deviceToTeam map[string]int
	teamToDevice map[int]string
}

func newBindingRegistry() *bindingRegistry {
	return &bindingRegistry{
		deviceToTeam: make(map[string]int),
		teamToDevice: make(map[int]string),
	}
}

func (b *bindingRegistry) teamFor(device string) (int, bool) {
	id, ok := b.deviceToTeam[device]
	return id, ok
}

func (b *bindingRegistry) deviceFor(teamID int) (string, bool) {
	dev, ok := b.teamToDevice[teamID]
	return dev, ok
}

func (b *bindingRegistry) bind(device string, teamID int) {
	b.deviceToTeam[device] = teamID
	b.teamToDevice[teamID] = device
}

// unbindTeam clears both directions for a team, whichever side initiated.
func (b *bindingRegistry) unbindTeam(teamID int) {
	if dev, ok := b.teamToDevice[teamID]; ok {
		delete(b.deviceToTeam, dev)
	}
	delete(b.teamToDevice, teamID)
}

func (b *bindingRegistry) clear() {
	b.deviceToTeam = make(map[string]int)
	b.teamToDevice = make(map[int]string)
}
