package tui

// emojis is the picker grid, emojiColumns per row
var emojis = []string{
	"😀", "😃", "😄", "😁", "😆", "😅", "🤣", "😂",
	"🙂", "🙃", "😉", "😊", "😇", "🥰", "😍", "🤩",
	"😘", "😗", "😚", "😙", "🥲", "😋", "😛", "😜",
	"🤪", "😝", "🤑", "🤗", "🤭", "🤫", "🤔", "🤐",
	"🤨", "😐", "😑", "😶", "😏", "😒", "🙄", "😬",
	"🤥", "😌", "😔", "😪", "🤤", "😴", "😷", "🤒",
	"👍", "👎", "👌", "✌️", "🤞", "🤟", "🤘", "🤙",
	"👏", "🙌", "👐", "🤝", "🙏", "✍️", "💪", "🦾",
	"❤️", "🧡", "💛", "💚", "💙", "💜", "🖤", "🤍",
	"💔", "❣️", "💕", "💞", "💓", "💗", "💖", "💘",
	"🔥", "💯", "✨", "⭐", "🌟", "💫", "🎉", "🎊",
}

const emojiColumns = 8
