package urls

// OpenKarotzProject is the OpenKarotz firmware project. Its README covers
// installing the firmware and the CGI API the rabbit exposes.
const OpenKarotzProject = "https://github.com/hobbe/OpenKarotz"
